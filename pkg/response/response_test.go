package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestSuccessResponse(t *testing.T) {
	t.Run("without data", func(t *testing.T) {
		resp := SuccessResponse("done")

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, "done", resp.Message)
		assert.Nil(t, resp.Data)
	})

	t.Run("with data", func(t *testing.T) {
		data := map[string]string{"short_code": "abc0def"}

		resp := SuccessResponse("done", data)

		assert.Equal(t, StatusSuccess, resp.Status)
		assert.Equal(t, data, resp.Data)
	})
}

func TestValidationErrorResponse(t *testing.T) {
	t.Run("non-validator error", func(t *testing.T) {
		resp := ValidationErrorResponse(errors.New("boom"))

		assert.Equal(t, StatusError, resp.Status)
		assert.Empty(t, resp.Details)
	})

	t.Run("validator errors become details", func(t *testing.T) {
		validate := validator.New()

		req := struct {
			URL string `validate:"required,url"`
		}{URL: "not a url"}

		err := validate.Struct(req)
		assert.Error(t, err)

		resp := ValidationErrorResponse(err)

		assert.Equal(t, StatusError, resp.Status)
		assert.Len(t, resp.Details, 1)
		assert.Contains(t, resp.Details[0], "url")
	})
}
