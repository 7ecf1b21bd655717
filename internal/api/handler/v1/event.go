package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/request"
	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/service"
)

type EventService interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	Update(ctx context.Context, eventID, organizerID uint, input service.UpdateInput) (domain.Event, error)
	ChangeStatus(ctx context.Context, eventID, organizerID uint, to domain.EventStatus) (domain.Event, error)
	Delete(ctx context.Context, eventID, organizerID uint) error
	Browse(ctx context.Context, query service.BrowseQuery) ([]service.EventSummary, error)
	Trending(ctx context.Context, limit int) ([]service.EventSummary, error)
	Detail(ctx context.Context, eventID uint, viewer domain.User) (service.EventDetail, error)
	ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
	Analytics(ctx context.Context, eventID, organizerID uint) (service.EventAnalytics, error)
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleBrowseEvents godoc
// @Summary      Browse published events
// @Tags         events
// @Produce      json
// @Param        search       query  string false "fuzzy name search"
// @Param        type         query  string false "NORMAL or MERCHANDISE"
// @Param        eligibility  query  string false "eligibility filter"
// @Param        tag          query  string false "tag filter"
// @Success      200  {array}   service.EventSummary
// @Failure      500  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleBrowseEvents(ctx *gin.Context) {
	query := service.BrowseQuery{
		Search:      ctx.Query("search"),
		Type:        domain.EventType(ctx.Query("type")),
		Eligibility: ctx.Query("eligibility"),
		Tag:         ctx.Query("tag"),
	}
	if from := ctx.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query.From = t
		}
	}
	if to := ctx.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query.To = t
		}
	}

	events, err := h.svc.Browse(ctx.Request.Context(), query)
	if err != nil {
		err = fmt.Errorf("v1.HandleBrowseEvents -> h.svc.Browse -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleTrendingEvents godoc
// @Summary      List trending events by fill ratio
// @Tags         events
// @Produce      json
// @Success      200  {array}   service.EventSummary
// @Failure      500  {object}  response.Err
// @Router       /events/trending [get]
// @Security BearerAuth
func (h *EventHandler) HandleTrendingEvents(ctx *gin.Context) {
	events, err := h.svc.Trending(ctx.Request.Context(), 10)
	if err != nil {
		err = fmt.Errorf("v1.HandleTrendingEvents -> h.svc.Trending -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get one event with the viewer's registration state
// @Tags         events
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Success      200  {object}  service.EventDetail
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
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

	detail, err := h.svc.Detail(ctx.Request.Context(), eventID, user)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.Detail -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Tags         organizer
// @Accept       json
// @Produce      json
// @Param        request  body  request.CreateEventRequest  true  "event"
// @Success      201  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Create(ctx.Request.Context(), domain.Event{
		OrganizerID:          user.ID,
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 domain.EventType(req.Type),
		Eligibility:          req.Eligibility,
		Tags:                 req.Tags,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		RegistrationFee:      req.RegistrationFee,
		TeamBased:            req.TeamBased,
		MaxTeamSize:          req.MaxTeamSize,
		CustomForm:           formFields(req.CustomForm),
		Merchandise:          merchandiseItems(req.Merchandise),
		Status:               domain.EventStatus(req.Status),
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.Create -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Edit an event within its lifecycle rules
// @Tags         organizer
// @Accept       json
// @Produce      json
// @Param        eventID  path  int                         true  "event ID"
// @Param        request  body  request.UpdateEventRequest  true  "changed fields"
// @Success      200  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID} [patch]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
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

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	input := service.UpdateInput{
		Name:                 req.Name,
		Description:          req.Description,
		Eligibility:          req.Eligibility,
		Tags:                 req.Tags,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		RegistrationFee:      req.RegistrationFee,
		TeamBased:            req.TeamBased,
		MaxTeamSize:          req.MaxTeamSize,
	}
	if req.CustomForm != nil {
		input.CustomForm = formFields(req.CustomForm)
	}
	if req.Merchandise != nil {
		input.Merchandise = merchandiseItems(req.Merchandise)
	}
	if req.Status != nil {
		status := domain.EventStatus(*req.Status)
		input.Status = &status
	}

	event, err := h.svc.Update(ctx.Request.Context(), eventID, user.ID, input)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateEvent -> h.svc.Update -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleChangeEventStatus godoc
// @Summary      Move an event along its lifecycle
// @Tags         organizer
// @Accept       json
// @Produce      json
// @Param        eventID  path  int                         true  "event ID"
// @Param        request  body  request.ChangeStatusRequest true  "target status"
// @Success      200  {object}  domain.Event
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/status [post]
// @Security BearerAuth
func (h *EventHandler) HandleChangeEventStatus(ctx *gin.Context) {
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

	var req request.ChangeStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.ChangeStatus(ctx.Request.Context(), eventID, user.ID, domain.EventStatus(req.Status))
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleChangeEventStatus -> h.svc.ChangeStatus -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete a draft event
// @Tags         organizer
// @Param        eventID  path  int  true  "event ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
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

	if err := h.svc.Delete(ctx.Request.Context(), eventID, user.ID); err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteEvent -> h.svc.Delete -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListMyEvents godoc
// @Summary      List the organizer's own events
// @Tags         organizer
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      500  {object}  response.Err
// @Router       /organizer/events [get]
// @Security BearerAuth
func (h *EventHandler) HandleListMyEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	events, err := h.svc.ListByOrganizer(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListMyEvents -> h.svc.ListByOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleEventAnalytics godoc
// @Summary      Get registration and revenue analytics for one event
// @Tags         organizer
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Success      200  {object}  service.EventAnalytics
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/analytics [get]
// @Security BearerAuth
func (h *EventHandler) HandleEventAnalytics(ctx *gin.Context) {
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

	analytics, err := h.svc.Analytics(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleEventAnalytics -> h.svc.Analytics -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, analytics)
}

func formFields(fields []request.FormFieldRequest) []domain.FormField {
	if fields == nil {
		return nil
	}

	out := make([]domain.FormField, 0, len(fields))
	for _, f := range fields {
		out = append(out, domain.FormField{
			FieldID:  f.FieldID,
			Label:    f.Label,
			Type:     domain.FieldType(f.Type),
			Options:  f.Options,
			Required: f.Required,
			Order:    f.Order,
		})
	}

	return out
}

func merchandiseItems(items []request.MerchandiseItemRequest) []domain.MerchandiseItem {
	if items == nil {
		return nil
	}

	out := make([]domain.MerchandiseItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.MerchandiseItem{
			SKU:           item.SKU,
			Name:          item.Name,
			Size:          item.Size,
			Color:         item.Color,
			Variant:       item.Variant,
			Price:         item.Price,
			Stock:         item.Stock,
			PurchaseLimit: item.PurchaseLimit,
		})
	}

	return out
}
