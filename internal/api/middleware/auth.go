package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/pkg/jwthelper"
)

const (
	// ContextKeyUserID is where VerifyJWT stores the authenticated user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyRole is where the claims' role lands.
	ContextKeyRole = "role"
)

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT rejects requests without a valid bearer token and stashes the
// claims on the gin context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errors.New("missing bearer token")))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(errors.New("invalid or expired token")))
			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Set(ContextKeyRole, claims.Role)
		ctx.Next()
	}
}

// RequireRole gates a route group to one role.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(ContextKeyRole) != role {
			response.RenderErr(ctx, response.ErrPermissionDenied(errors.New("insufficient role")))
			return
		}

		ctx.Next()
	}
}
