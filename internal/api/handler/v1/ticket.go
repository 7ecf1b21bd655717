package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/service"
)

type TicketService interface {
	Find(ctx context.Context, ticketID string, participantID uint) (service.TicketView, error)
	ListMine(ctx context.Context, participantID uint) ([]service.TicketView, error)
	ICS(ctx context.Context, ticketID string, participantID uint) (string, error)
}

type TicketHandler struct {
	svc  TicketService
	uSvc UserService
}

func NewTicketHandler(svc TicketService, uSvc UserService) *TicketHandler {
	return &TicketHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleMyTickets godoc
// @Summary      List the caller's tickets
// @Tags         tickets
// @Produce      json
// @Success      200  {array}   service.TicketView
// @Failure      500  {object}  response.Err
// @Router       /me/tickets [get]
// @Security BearerAuth
func (h *TicketHandler) HandleMyTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.ListMine(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyTickets -> h.svc.ListMine -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

// HandleGetTicket godoc
// @Summary      Get one of the caller's tickets with its QR and calendar links
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path  string  true  "ticket identifier, e.g. FEL-AB12CD34EF"
// @Success      200  {object}  service.TicketView
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me/tickets/{ticketID} [get]
// @Security BearerAuth
func (h *TicketHandler) HandleGetTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	view, err := h.svc.Find(ctx.Request.Context(), ctx.Param("ticketID"), user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleGetTicket -> h.svc.Find -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// HandleTicketICS godoc
// @Summary      Download the event of a ticket as an .ics calendar file
// @Tags         tickets
// @Produce      text/calendar
// @Param        ticketID  path  string  true  "ticket identifier"
// @Success      200  {string}  string
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me/tickets/{ticketID}/calendar.ics [get]
// @Security BearerAuth
func (h *TicketHandler) HandleTicketICS(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID := ctx.Param("ticketID")
	ics, err := h.svc.ICS(ctx.Request.Context(), ticketID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleTicketICS -> h.svc.ICS -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ticketID+".ics"))
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}
