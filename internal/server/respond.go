package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sertugser/assessai/internal/activity"
)

// Error codes of the {error, code} envelope.
const (
	codeBadRequest  = "bad_request"
	codeValidation  = "validation_error"
	codeInternal    = "internal_error"
	codeUnavailable = "unavailable"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

// storeError maps activity store errors onto HTTP statuses.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, activity.ErrInvalidType),
		errors.Is(err, activity.ErrInvalidScore),
		errors.Is(err, activity.ErrInvalidCategory):
		abortError(c, http.StatusBadRequest, codeValidation, err.Error())
	default:
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
