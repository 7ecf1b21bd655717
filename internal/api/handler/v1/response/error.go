package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/felicity-connect/backend/internal/domain"
)

// Err is the JSON body of every non-2xx reply.
type Err struct {
	StatusCode int    `json:"status_code"`
	ErrorMsg   string `json:"error"`
	RequestID  string `json:"request_id,omitempty"`

	Violations []string `json:"violations,omitempty"`
	Details    any      `json:"details,omitempty"`
}

func (e *Err) Error() string {
	return fmt.Sprintf("status %d - %v", e.StatusCode, e.ErrorMsg)
}

func RenderErr(ctx *gin.Context, err *Err) {
	err.RequestID = requestid.Get(ctx)

	if err.StatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.Int("status", err.StatusCode),
			zap.String("request_id", err.RequestID),
			zap.String("error", err.ErrorMsg))
	}

	ctx.AbortWithStatusJSON(err.StatusCode, err)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		ErrorMsg:   err.Error(),
	}
}

func ErrNotFound(resource, key string, value any) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		ErrorMsg:   fmt.Sprintf("%s not found by %s (%v)", resource, key, value),
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		ErrorMsg:   err.Error(),
	}
}

func ErrUnauthorized(err error) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		ErrorMsg:   err.Error(),
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		StatusCode: http.StatusForbidden,
		ErrorMsg:   err.Error(),
	}
}

func ErrConflict(err error) *Err {
	return &Err{
		StatusCode: http.StatusConflict,
		ErrorMsg:   err.Error(),
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		StatusCode: http.StatusInternalServerError,
		ErrorMsg:   err.Error(),
	}
}

// ErrDomain maps a typed service failure to its HTTP shape. Anything that
// is not a domain error is treated as internal.
func ErrDomain(err error) *Err {
	var de *domain.Error
	if !errors.As(err, &de) {
		return ErrInternalServerError(err)
	}

	out := &Err{ErrorMsg: de.Message, Violations: de.Violations}

	switch de.Kind {
	case domain.KindNotFound:
		out.StatusCode = http.StatusNotFound
	case domain.KindConflict:
		out.StatusCode = http.StatusConflict
	case domain.KindValidationFailed:
		out.StatusCode = http.StatusBadRequest
	case domain.KindForbidden:
		out.StatusCode = http.StatusForbidden
	case domain.KindStateViolation:
		out.StatusCode = http.StatusUnprocessableEntity
	default:
		out.StatusCode = http.StatusInternalServerError
	}

	return out
}
