package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/request"
	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/pkg/filestore"
	"github.com/felicity-connect/backend/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, input service.RegisterInput) (domain.Registration, error)
	TeamOptions(ctx context.Context, eventID uint) ([]domain.TeamOption, error)
	ListForEvent(ctx context.Context, eventID, organizerID uint) ([]domain.Registration, error)
	ListMine(ctx context.Context, participantID uint) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc   RegistrationService
	uSvc  UserService
	files *filestore.Store
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService, files *filestore.Store) *RegistrationHandler {
	return &RegistrationHandler{
		svc:   svc,
		uSvc:  uSvc,
		files: files,
	}
}

// HandleRegister godoc
// @Summary      Register for an event
// @Description  Accepts JSON, or multipart/form-data with a "payload" part
// @Description  plus one file part per file-typed form field.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        eventID  path  int                      true  "event ID"
// @Param        request  body  request.RegisterRequest  true  "form answers"
// @Success      201  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/registrations [post]
// @Security BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	req, files, err := h.parseRegisterRequest(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	registration, err := h.svc.Register(ctx.Request.Context(), service.RegisterInput{
		EventID:       eventID,
		ParticipantID: user.ID,
		Responses:     req.Responses,
		Files:         files,
		TeamAction:    domain.TeamAction(req.TeamAction),
		TeamName:      req.TeamName,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, registration)
}

// parseRegisterRequest reads either a JSON body or a multipart form where
// the JSON lives in the "payload" part and every other file part is a form
// answer keyed by its fieldId. Saved files are cleaned up by the service on
// registration failure.
func (h *RegistrationHandler) parseRegisterRequest(ctx *gin.Context) (request.RegisterRequest, map[string]domain.FileMeta, error) {
	var req request.RegisterRequest

	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return req, nil, err
	}

	if payloads := form.Value["payload"]; len(payloads) > 0 {
		if err := json.Unmarshal([]byte(payloads[0]), &req); err != nil {
			return req, nil, fmt.Errorf("invalid payload part: %w", err)
		}
	}

	files := make(map[string]domain.FileMeta)
	for fieldID, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		header := headers[0]

		src, err := header.Open()
		if err != nil {
			return req, files, err
		}

		rel, err := h.files.Save("registrations", header.Filename, src)
		src.Close()
		if err != nil {
			return req, files, err
		}

		files[fieldID] = domain.FileMeta{
			OriginalName: header.Filename,
			Path:         rel,
			MimeType:     header.Header.Get("Content-Type"),
			Size:         header.Size,
		}
	}

	return req, files, nil
}

// HandleTeamOptions godoc
// @Summary      List joinable teams for a team-based event
// @Tags         registrations
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Success      200  {array}   domain.TeamOption
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/teams [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleTeamOptions(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	teams, err := h.svc.TeamOptions(ctx.Request.Context(), eventID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleTeamOptions -> h.svc.TeamOptions -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, teams)
}

// HandleListEventRegistrations godoc
// @Summary      List registrations of an owned event
// @Tags         organizer
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Success      200  {array}   domain.Registration
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/registrations [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleListEventRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrations, err := h.svc.ListForEvent(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleListEventRegistrations -> h.svc.ListForEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, registrations)
}

// HandleMyRegistrations godoc
// @Summary      List the caller's registrations
// @Tags         registrations
// @Produce      json
// @Success      200  {array}   domain.Registration
// @Failure      500  {object}  response.Err
// @Router       /me/registrations [get]
// @Security BearerAuth
func (h *RegistrationHandler) HandleMyRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrations, err := h.svc.ListMine(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyRegistrations -> h.svc.ListMine -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, registrations)
}
