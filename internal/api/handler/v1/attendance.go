package v1

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/request"
	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/service"
)

type AttendanceService interface {
	Scan(ctx context.Context, eventID, organizerID uint, rawPayload string) (domain.ScanResult, error)
	ManualOverride(ctx context.Context, eventID, organizerID uint, input service.OverrideInput) (domain.AttendanceLog, error)
	Dashboard(ctx context.Context, eventID, organizerID uint) (domain.AttendanceDashboard, error)
	ExportRows(ctx context.Context, eventID, organizerID uint) ([]domain.AttendanceExportRow, error)
}

type AttendanceHandler struct {
	svc  AttendanceService
	uSvc UserService
}

func NewAttendanceHandler(svc AttendanceService, uSvc UserService) *AttendanceHandler {
	return &AttendanceHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleScan godoc
// @Summary      Scan a ticket QR at the door
// @Description  A repeat scan answers 409 with the participant and the time
// @Description  of their first check-in.
// @Tags         organizer
// @Accept       json
// @Produce      json
// @Param        eventID  path  int                  true  "event ID"
// @Param        request  body  request.ScanRequest  true  "decoded QR payload"
// @Success      200  {object}  domain.ScanResult
// @Failure      400  {object}  response.Err
// @Failure      409  {object}  response.DuplicateScanResponse
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/scan [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleScan(ctx *gin.Context) {
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

	var req request.ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.Scan(ctx.Request.Context(), eventID, user.ID, req.Payload)
	if err != nil {
		var dup *service.DuplicateScanError
		if errors.As(err, &dup) {
			ctx.AbortWithStatusJSON(http.StatusConflict, response.DuplicateScanResponse{
				Error:       domain.ErrDuplicateScan.Message,
				Participant: dup.Participant,
				FirstSeen:   dup.FirstSeen,
			})
			return
		}
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleScan -> h.svc.Scan -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleManualOverride godoc
// @Summary      Mark a participant present without a ticket scan
// @Tags         organizer
// @Accept       json
// @Produce      json
// @Param        eventID  path  int                            true  "event ID"
// @Param        request  body  request.ManualOverrideRequest  true  "ticket id or participant email, plus note"
// @Success      200  {object}  domain.AttendanceLog
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/attendance/override [post]
// @Security BearerAuth
func (h *AttendanceHandler) HandleManualOverride(ctx *gin.Context) {
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

	var req request.ManualOverrideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	log, err := h.svc.ManualOverride(ctx.Request.Context(), eventID, user.ID, service.OverrideInput{
		TicketID:         req.TicketID,
		ParticipantEmail: req.ParticipantEmail,
		Note:             req.Note,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleManualOverride -> h.svc.ManualOverride -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, log)
}

// HandleAttendanceDashboard godoc
// @Summary      Live attendance dashboard for an owned event
// @Tags         organizer
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Success      200  {object}  domain.AttendanceDashboard
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/attendance [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleAttendanceDashboard(ctx *gin.Context) {
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

	dashboard, err := h.svc.Dashboard(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleAttendanceDashboard -> h.svc.Dashboard -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}

// HandleExportAttendance godoc
// @Summary      Download the attendance sheet as CSV
// @Tags         organizer
// @Produce      text/csv
// @Param        eventID  path  int  true  "event ID"
// @Success      200  {string}  string
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/attendance/export [get]
// @Security BearerAuth
func (h *AttendanceHandler) HandleExportAttendance(ctx *gin.Context) {
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

	rows, err := h.svc.ExportRows(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleExportAttendance -> h.svc.ExportRows -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("attendance-%d.csv", eventID)))
	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Status(http.StatusOK)

	writer := csv.NewWriter(ctx.Writer)
	_ = writer.Write([]string{"name", "email", "present", "timestamp", "method"})
	for _, row := range rows {
		timestamp := ""
		if row.Timestamp != nil {
			timestamp = row.Timestamp.Format("2006-01-02 15:04:05")
		}
		_ = writer.Write([]string{
			row.Name,
			row.Email,
			fmt.Sprintf("%t", row.Present),
			timestamp,
			string(row.Method),
		})
	}
	writer.Flush()
}
