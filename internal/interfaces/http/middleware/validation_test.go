package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

type validationInput struct {
	ConnectionID string `json:"connection_id" binding:"required,uuid"`
	Platform     string `json:"platform" binding:"omitempty,platform"`
	Price        string `json:"price" binding:"omitempty,decimal"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req validationInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, "req-validation")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	t.Run("reports fields by JSON name", func(t *testing.T) {
		w := postJSON(router, `{"connection_id":"nope","platform":"etsy","price":"-1"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-validation", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid UUID format", fields["connection_id"])
		assert.Equal(t, "Must be shopify or woocommerce", fields["platform"])
		assert.Equal(t, "Must be a non-negative decimal amount", fields["price"])
	})

	t.Run("accepts valid input", func(t *testing.T) {
		w := postJSON(router, `{"connection_id":"2b1c1e0a-9f7c-4a55-8d6e-3c7a1f0b2d4e","platform":"woo","price":"19.99"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed JSON has no details", func(t *testing.T) {
		w := postJSON(router, `{`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Error.Details)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
		Code string `validate:"min=5"`
		Kind string `validate:"oneof=a b"`
	}

	err := validator.New().Struct(sample{Code: "ab", Kind: "c"})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	got := map[string]string{}
	for _, e := range errs {
		got[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, "This field is required", got["Name"])
	assert.Equal(t, "Must be at least 5 characters", got["Code"])
	assert.Equal(t, "Must be one of: a b", got["Kind"])
}
