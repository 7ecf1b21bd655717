package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/request"
	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
	"github.com/felicity-connect/backend/internal/service"
)

type AdminService interface {
	CreateOrganizer(ctx context.Context, input service.OrganizerInput) (domain.User, error)
	ListOrganizers(ctx context.Context, includeArchived bool) ([]domain.User, error)
	UpdateOrganizer(ctx context.Context, organizerID uint, input service.OrganizerInput) (domain.User, error)
	SetOrganizerDisabled(ctx context.Context, organizerID uint, disabled bool) error
	ArchiveOrganizer(ctx context.Context, organizerID uint) error
	RequestPasswordReset(ctx context.Context, organizerID uint) (domain.PasswordResetRequest, error)
	ListResetRequests(ctx context.Context) ([]domain.PasswordResetRequest, error)
	ResolveResetRequest(ctx context.Context, requestID, adminID uint, newPassword string) (domain.PasswordResetRequest, error)
	DismissResetRequest(ctx context.Context, requestID, adminID uint) (domain.PasswordResetRequest, error)
}

type AdminHandler struct {
	svc  AdminService
	uSvc UserService
}

func NewAdminHandler(svc AdminService, uSvc UserService) *AdminHandler {
	return &AdminHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleCreateOrganizer godoc
// @Summary      Provision an organizer account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body  request.CreateOrganizerRequest  true  "organizer"
// @Success      201  {object}  domain.User
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers [post]
// @Security BearerAuth
func (h *AdminHandler) HandleCreateOrganizer(ctx *gin.Context) {
	var req request.CreateOrganizerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	organizer, err := h.svc.CreateOrganizer(ctx.Request.Context(), service.OrganizerInput{
		Email:             req.Email,
		Password:          req.Password,
		OrganizerName:     req.OrganizerName,
		Category:          req.Category,
		Description:       req.Description,
		ContactEmail:      req.ContactEmail,
		DiscordWebhookURL: req.DiscordWebhookURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserEmailExists) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateOrganizer -> h.svc.CreateOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, organizer)
}

// HandleListOrganizers godoc
// @Summary      List organizer accounts
// @Tags         admin
// @Produce      json
// @Param        include_archived  query  string  false  "true to include archived accounts"
// @Success      200  {array}   domain.User
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers [get]
// @Security BearerAuth
func (h *AdminHandler) HandleListOrganizers(ctx *gin.Context) {
	includeArchived := ctx.Query("include_archived") == "true"

	organizers, err := h.svc.ListOrganizers(ctx.Request.Context(), includeArchived)
	if err != nil {
		err = fmt.Errorf("v1.HandleListOrganizers -> h.svc.ListOrganizers -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, organizers)
}

// HandleUpdateOrganizer godoc
// @Summary      Edit an organizer account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        organizerID  path  int                             true  "organizer ID"
// @Param        request      body  request.UpdateOrganizerRequest  true  "changed fields"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers/{organizerID} [patch]
// @Security BearerAuth
func (h *AdminHandler) HandleUpdateOrganizer(ctx *gin.Context) {
	organizerID, respErr := pathID(ctx, "organizerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpdateOrganizerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	organizer, err := h.svc.UpdateOrganizer(ctx.Request.Context(), organizerID, service.OrganizerInput{
		OrganizerName:     req.OrganizerName,
		Category:          req.Category,
		Description:       req.Description,
		ContactEmail:      req.ContactEmail,
		DiscordWebhookURL: req.DiscordWebhookURL,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateOrganizer -> h.svc.UpdateOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, organizer)
}

// HandleSetOrganizerDisabled godoc
// @Summary      Disable or re-enable an organizer account
// @Tags         admin
// @Produce      json
// @Param        organizerID  path   int     true   "organizer ID"
// @Param        disabled     query  string  false  "false to re-enable"
// @Success      204
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers/{organizerID}/disabled [post]
// @Security BearerAuth
func (h *AdminHandler) HandleSetOrganizerDisabled(ctx *gin.Context) {
	organizerID, respErr := pathID(ctx, "organizerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	disabled := ctx.DefaultQuery("disabled", "true") != "false"

	if err := h.svc.SetOrganizerDisabled(ctx.Request.Context(), organizerID, disabled); err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleSetOrganizerDisabled -> h.svc.SetOrganizerDisabled -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleArchiveOrganizer godoc
// @Summary      Archive an organizer account
// @Tags         admin
// @Param        organizerID  path  int  true  "organizer ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers/{organizerID} [delete]
// @Security BearerAuth
func (h *AdminHandler) HandleArchiveOrganizer(ctx *gin.Context) {
	organizerID, respErr := pathID(ctx, "organizerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.ArchiveOrganizer(ctx.Request.Context(), organizerID); err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleArchiveOrganizer -> h.svc.ArchiveOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRequestPasswordReset godoc
// @Summary      Open a password reset request for an organizer
// @Tags         admin
// @Produce      json
// @Param        organizerID  path  int  true  "organizer ID"
// @Success      201  {object}  domain.PasswordResetRequest
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers/{organizerID}/reset-requests [post]
// @Security BearerAuth
func (h *AdminHandler) HandleRequestPasswordReset(ctx *gin.Context) {
	organizerID, respErr := pathID(ctx, "organizerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reset, err := h.svc.RequestPasswordReset(ctx.Request.Context(), organizerID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleRequestPasswordReset -> h.svc.RequestPasswordReset -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, reset)
}

// HandleListResetRequests godoc
// @Summary      List pending password reset requests
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.PasswordResetRequest
// @Failure      500  {object}  response.Err
// @Router       /admin/reset-requests [get]
// @Security BearerAuth
func (h *AdminHandler) HandleListResetRequests(ctx *gin.Context) {
	requests, err := h.svc.ListResetRequests(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListResetRequests -> h.svc.ListResetRequests -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, requests)
}

// HandleResolveResetRequest godoc
// @Summary      Resolve a reset request with a new password
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        requestID  path  int                          true  "reset request ID"
// @Param        request    body  request.ResolveResetRequest  true  "new password"
// @Success      200  {object}  domain.PasswordResetRequest
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/reset-requests/{requestID}/resolve [post]
// @Security BearerAuth
func (h *AdminHandler) HandleResolveResetRequest(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, respErr := pathID(ctx, "requestID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ResolveResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reset, err := h.svc.ResolveResetRequest(ctx.Request.Context(), requestID, user.ID, req.NewPassword)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleResolveResetRequest -> h.svc.ResolveResetRequest -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reset)
}

// HandleDismissResetRequest godoc
// @Summary      Dismiss a pending reset request
// @Tags         admin
// @Produce      json
// @Param        requestID  path  int  true  "reset request ID"
// @Success      200  {object}  domain.PasswordResetRequest
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/reset-requests/{requestID}/dismiss [post]
// @Security BearerAuth
func (h *AdminHandler) HandleDismissResetRequest(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	requestID, respErr := pathID(ctx, "requestID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reset, err := h.svc.DismissResetRequest(ctx.Request.Context(), requestID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleDismissResetRequest -> h.svc.DismissResetRequest -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reset)
}
