package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/api/middleware"
	"github.com/felicity-connect/backend/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

// getUserFromContext loads the authenticated user based on the claims the
// JWT middleware stored on the context.
func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	raw, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return domain.User{}, response.ErrUnauthorized(errors.New("not authenticated"))
	}

	userID, ok := raw.(uint)
	if !ok || userID == 0 {
		return domain.User{}, response.ErrUnauthorized(errors.New("not authenticated"))
	}

	user, err := svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		return domain.User{}, response.ErrUnauthorized(fmt.Errorf("unknown user %v", userID))
	}

	return user, nil
}

// pathID parses a :param path segment into a uint.
func pathID(ctx *gin.Context, name string) (uint, *response.Err) {
	raw := ctx.Param(name)

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("invalid %s (%q)", name, raw))
	}

	return uint(id), nil
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
