package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mealplanr/internal/auth"
	"mealplanr/internal/planner"
	"mealplanr/internal/user"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const (
	CodeInvalidRequest      = "invalid_request"
	CodeUnauthorized        = "unauthorized"
	CodeInternal            = "internal_error"
	CodeInsufficientCatalog = "insufficient_catalog"
	CodePlanNotFound        = "plan_not_found"
	CodeInvalidSlot         = "invalid_slot"
	CodeNoAlternative       = "no_alternative"
	CodeItemNotFound        = "item_not_found"
	CodeEmailTaken          = "email_taken"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeUserNotFound        = "user_not_found"
)

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps a service error to its status and code.
// Unknown errors become a 500 whose message does not leak internals.
func RespondDomainError(c *gin.Context, err error) {
	status, code := Classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	RespondError(c, status, code, err)
}

// Classify returns the HTTP status and error code for err.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, planner.ErrInsufficientCatalog):
		return http.StatusBadRequest, CodeInsufficientCatalog
	case errors.Is(err, planner.ErrPlanNotFound):
		return http.StatusNotFound, CodePlanNotFound
	case errors.Is(err, planner.ErrInvalidSlot):
		return http.StatusBadRequest, CodeInvalidSlot
	case errors.Is(err, planner.ErrNoAlternative):
		return http.StatusNotFound, CodeNoAlternative
	case errors.Is(err, planner.ErrItemNotFound):
		return http.StatusNotFound, CodeItemNotFound
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusBadRequest, CodeEmailTaken
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeInvalidCredentials
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, CodeUserNotFound
	}
	return http.StatusInternalServerError, CodeInternal
}
