package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/drlsv91/shortlink/internal/database"
	"github.com/drlsv91/shortlink/internal/models"
)

// ErrMaxAttemptsExceeded is returned when every attempt to allocate a unique
// short code collided. The condition is transient: the caller may retry the
// whole creation later.
var ErrMaxAttemptsExceeded = errors.New("maximum attempts exceeded for generating short code")

const (
	defaultMaxAttempts = 5
	defaultPageLimit   = 20
	minSearchTermLen   = 3
)

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create atomically checks for an existing record with the same original
	// URL and inserts a new one if absent. It returns database.ErrShortCodeExists
	// when the short code is already taken by another URL.
	Create(ctx context.Context, originalURL, shortCode string) (*database.CreateResult, error)

	// ResolveAndTouch retrieves a URL by its short code and increments its
	// visit count as one atomic operation.
	ResolveAndTouch(ctx context.Context, shortCode string) (*models.URL, error)

	// GetStats retrieves a URL by its short code without changing it.
	GetStats(ctx context.Context, shortCode string) (*models.URL, error)

	// List returns matching records newest first plus the total match count.
	List(ctx context.Context, searchTerm string, limit, offset int) ([]models.URL, int64, error)
}

// CodeGenerator produces candidate short codes for original URLs. Candidates
// are probabilistic: repeated calls for the same URL should yield different
// codes so that collision retries make progress.
type CodeGenerator interface {
	Generate(originalURL string) string
}

// Option configures a URLService.
type Option func(*URLService)

// WithMaxAttempts sets the creation attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *URLService) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// WithRetryObserver registers a callback fired after each failed creation
// attempt that still leaves attempts in the budget, with the 1-based number
// of attempts used so far.
func WithRetryObserver(fn func(attempt int)) Option {
	return func(s *URLService) {
		if fn != nil {
			s.observer = fn
		}
	}
}

// URLService implements the URL shortening operations on top of a repository
// and a code generator. All collaborators are explicit constructor arguments;
// the service itself holds no mutable state.
type URLService struct {
	repo        URLRepository
	gen         CodeGenerator
	maxAttempts int
	observer    func(attempt int)
}

// NewURLService creates a new URLService with the provided repository and generator.
func NewURLService(repo URLRepository, gen CodeGenerator, opts ...Option) *URLService {
	s := &URLService{
		repo:        repo,
		gen:         gen,
		maxAttempts: defaultMaxAttempts,
		observer:    func(int) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateShortURL stores the original URL under a freshly generated short code
// and returns the record. Creation is idempotent: if the URL was shortened
// before, the existing record is returned unchanged.
//
// When a generated code collides with another record's code, a new code is
// generated and the insert is retried, up to the configured attempt budget.
// Any other repository failure propagates immediately; a store outage is not
// a collision and retrying it here would only mask it.
func (s *URLService) CreateShortURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "service.URLService.CreateShortURL"

	for attempt := 1; ; attempt++ {
		shortCode := s.gen.Generate(originalURL)

		res, err := s.repo.Create(ctx, originalURL, shortCode)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				if attempt >= s.maxAttempts {
					return nil, fmt.Errorf("%s: %w", op, ErrMaxAttemptsExceeded)
				}

				s.observer(attempt)
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return res.URL, nil
	}
}

// ResolveShortCode retrieves the original URL associated with the short code,
// counting the resolution as a visit.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.ResolveAndTouch(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return url, nil
}

// GetURLStats retrieves the record for the short code without incrementing
// its visit count.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	url, err := s.repo.GetStats(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// ListURLs returns a page of stored URLs, newest first. Pages start at 1,
// the limit defaults to 20 when out of range, and search terms shorter than
// three characters are ignored.
func (s *URLService) ListURLs(ctx context.Context, searchTerm string, page, limit int) (*models.URLPage, error) {
	const op = "service.URLService.ListURLs"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if len(searchTerm) < minSearchTermLen {
		searchTerm = ""
	}

	urls, total, err := s.repo.List(ctx, searchTerm, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &models.URLPage{
		URLs:       urls,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}
