package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/request"
	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/service"
)

type ProfileService interface {
	UserService
	CompleteOnboarding(ctx context.Context, userID uint, input service.OnboardingInput) (domain.User, error)
	FollowOrganizer(ctx context.Context, userID, organizerID uint, follow bool) (domain.User, error)
}

type UserHandler struct {
	svc ProfileService
}

func NewUserHandler(svc ProfileService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleCompleteOnboarding godoc
// @Summary      Complete the first-login participant profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body  request.OnboardingRequest  true  "profile"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me/onboarding [post]
// @Security BearerAuth
func (h *UserHandler) HandleCompleteOnboarding(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.OnboardingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.CompleteOnboarding(ctx.Request.Context(), user.ID, service.OnboardingInput{
		ParticipantType:    domain.ParticipantType(req.ParticipantType),
		CollegeName:        req.CollegeName,
		ContactNumber:      req.ContactNumber,
		Interests:          req.Interests,
		FollowedOrganizers: req.FollowedOrganizers,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleCompleteOnboarding -> h.svc.CompleteOnboarding -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleFollowOrganizer godoc
// @Summary      Follow or unfollow an organizer
// @Tags         users
// @Produce      json
// @Param        organizerID  path   int     true   "organizer ID"
// @Param        follow       query  string  false  "false to unfollow"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizers/{organizerID}/follow [post]
// @Security BearerAuth
func (h *UserHandler) HandleFollowOrganizer(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	organizerID, respErr := pathID(ctx, "organizerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	follow := ctx.DefaultQuery("follow", "true") != "false"

	updated, err := h.svc.FollowOrganizer(ctx.Request.Context(), user.ID, organizerID, follow)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleFollowOrganizer -> h.svc.FollowOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
