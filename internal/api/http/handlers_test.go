package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/drlsv91/shortlink/internal/database"
	"github.com/drlsv91/shortlink/internal/models"
	"github.com/drlsv91/shortlink/internal/service"
	"github.com/drlsv91/shortlink/pkg/response"
)

const testBaseURL = "http://short.est"

type MockURLService struct {
	mock.Mock
}

func (s *MockURLService) CreateShortURL(ctx context.Context, originalURL string) (*models.URL, error) {
	args := s.Called(ctx, originalURL)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) ListURLs(ctx context.Context, searchTerm string, page, limit int) (*models.URLPage, error) {
	args := s.Called(ctx, searchTerm, page, limit)
	urlPage, _ := args.Get(0).(*models.URLPage)
	return urlPage, args.Error(1)
}

type HandlersTestSuite struct {
	suite.Suite
	logger     *httplog.Logger
	urlSvcMock *MockURLService
	server     *httptest.Server
	e          *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.urlSvcMock = new(MockURLService)
	router := NewRouter(suite.logger, suite.urlSvcMock, testBaseURL)
	suite.server = httptest.NewServer(router)
	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.urlSvcMock.AssertExpectations(suite.T())
	suite.server.Close()
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/v1/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong\n")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/api/v1/shorten"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.EmptyRequestBodyResponse.Message)
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.BadRequestResponse.Message)
	})

	suite.Run("validation error", func() {
		suite.e.POST(path).
			WithJSON(map[string]string{
				"url": "invalid url",
			}).
			Expect().
			Status(http.StatusBadRequest).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			ContainsKey("message").
			ContainsKey("details")
	})

	suite.Run("attempts exhausted", func() {
		suite.urlSvcMock.
			On("CreateShortURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, service.ErrMaxAttemptsExceeded)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"url": "https://example.com",
			}).
			Expect().
			Status(http.StatusServiceUnavailable).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.RetryableErrorResponse.Message)
	})

	suite.Run("store unavailable", func() {
		suite.urlSvcMock.
			On("CreateShortURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrStoreUnavailable)

		suite.e.POST(path).
			WithJSON(map[string]string{
				"url": "https://example.com",
			}).
			Expect().
			Status(http.StatusServiceUnavailable).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.RetryableErrorResponse.Message)
	})

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("CreateShortURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, errors.New("unknown error"))

		suite.e.POST(path).
			WithJSON(map[string]string{
				"url": "https://example.com",
			}).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("CreateShortURL", mock.Anything, "https://example.com").
			Times(1).
			Return(&models.URL{
				ID:          1,
				ShortCode:   "abc0def",
				OriginalURL: "https://example.com",
				CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{
				"url": "https://example.com",
			}).
			Expect().
			Status(http.StatusCreated).
			HasContentType("application/json").
			JSON().Object()

		resp.HasValue("status", response.StatusSuccess)

		data := resp.Value("data").Object()
		data.HasValue("short_code", "abc0def")
		data.HasValue("short_url", testBaseURL+"/abc0def")
		data.HasValue("url", "https://example.com")
		data.HasValue("visit_count", 0)
	})
}

func (suite *HandlersTestSuite) TestResolveShortCode() {
	const path = "/api/v1/shorten/%s"

	suite.Run("url not found", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "missing").
			Times(1).
			Return(nil, database.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "missing")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "abc0def").
			Times(1).
			Return(&models.URL{
				ID:          1,
				ShortCode:   "abc0def",
				OriginalURL: "https://example.com",
				VisitCount:  1,
			}, nil)

		suite.e.GET(fmt.Sprintf(path, "abc0def")).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			Value("data").Object().
			HasValue("url", "https://example.com").
			HasValue("visit_count", 1)
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/%s"

	suite.Run("url not found", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "missing").
			Times(1).
			Return(nil, database.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "missing")).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("ResolveShortCode", mock.Anything, "abc0def").
			Times(1).
			Return(&models.URL{
				ShortCode:   "abc0def",
				OriginalURL: "https://example.com",
				VisitCount:  1,
			}, nil)

		suite.e.GET(fmt.Sprintf(path, "abc0def")).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com")
	})
}

func (suite *HandlersTestSuite) TestGetURLStats() {
	const path = "/api/v1/shorten/%s/stats"

	suite.Run("url not found", func() {
		suite.urlSvcMock.
			On("GetURLStats", mock.Anything, "missing").
			Times(1).
			Return(nil, database.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "missing")).
			Expect().
			Status(http.StatusNotFound).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ResourceNotFoundResponse.Message)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("GetURLStats", mock.Anything, "abc0def").
			Times(1).
			Return(&models.URL{
				ID:          1,
				ShortCode:   "abc0def",
				OriginalURL: "https://example.com",
				VisitCount:  5,
			}, nil)

		suite.e.GET(fmt.Sprintf(path, "abc0def")).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusSuccess).
			Value("data").Object().
			HasValue("visit_count", 5)
	})
}

func (suite *HandlersTestSuite) TestListURLs() {
	const path = "/api/v1/shorten"

	suite.Run("server error", func() {
		suite.urlSvcMock.
			On("ListURLs", mock.Anything, "", 0, 0).
			Times(1).
			Return(nil, errors.New("unknown error"))

		suite.e.GET(path).
			Expect().
			Status(http.StatusInternalServerError).
			HasContentType("application/json").
			JSON().Object().
			HasValue("status", response.StatusError).
			HasValue("message", response.ServerErrorResponse.Message)
	})

	suite.Run("success", func() {
		suite.urlSvcMock.
			On("ListURLs", mock.Anything, "example", 2, 1).
			Times(1).
			Return(&models.URLPage{
				URLs: []models.URL{
					{ID: 2, ShortCode: "xyz9xyz", OriginalURL: "https://example.org"},
				},
				Total:      3,
				Page:       2,
				Limit:      1,
				TotalPages: 3,
			}, nil)

		resp := suite.e.GET(path).
			WithQuery("search", "example").
			WithQuery("page", 2).
			WithQuery("limit", 1).
			Expect().
			Status(http.StatusOK).
			HasContentType("application/json").
			JSON().Object()

		resp.HasValue("status", response.StatusSuccess)

		data := resp.Value("data").Object()
		data.Value("urls").Array().Length().IsEqual(1)

		pagination := data.Value("pagination").Object()
		pagination.HasValue("total", 3)
		pagination.HasValue("page", 2)
		pagination.HasValue("total_pages", 3)
		pagination.HasValue("has_next_page", true)
		pagination.HasValue("has_prev_page", true)
	})
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
