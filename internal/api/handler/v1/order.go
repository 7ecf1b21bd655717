package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-connect/backend/internal/api/handler/v1/request"
	"github.com/felicity-connect/backend/internal/api/handler/v1/response"
	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/pkg/filestore"
	"github.com/felicity-connect/backend/internal/service"
)

type OrderService interface {
	Purchase(ctx context.Context, input service.PurchaseInput) (domain.MerchandiseOrder, error)
	UploadProof(ctx context.Context, orderID, participantID uint, proof domain.FileMeta) (domain.MerchandiseOrder, error)
	Review(ctx context.Context, input service.ReviewInput) (domain.MerchandiseOrder, error)
	Cancel(ctx context.Context, orderID, participantID uint) (domain.MerchandiseOrder, error)
	ListForEvent(ctx context.Context, eventID, organizerID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error)
	ListMine(ctx context.Context, participantID uint) ([]domain.MerchandiseOrder, error)
}

type OrderHandler struct {
	svc   OrderService
	uSvc  UserService
	files *filestore.Store
}

func NewOrderHandler(svc OrderService, uSvc UserService, files *filestore.Store) *OrderHandler {
	return &OrderHandler{
		svc:   svc,
		uSvc:  uSvc,
		files: files,
	}
}

// HandlePurchase godoc
// @Summary      Place a merchandise order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        eventID  path  int                      true  "event ID"
// @Param        request  body  request.PurchaseRequest  true  "item and quantity"
// @Success      201  {object}  domain.MerchandiseOrder
// @Failure      400  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/orders [post]
// @Security BearerAuth
func (h *OrderHandler) HandlePurchase(ctx *gin.Context) {
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

	var req request.PurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.Purchase(ctx.Request.Context(), service.PurchaseInput{
		EventID:       eventID,
		ParticipantID: user.ID,
		ItemSKU:       req.ItemSKU,
		Quantity:      req.Quantity,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandlePurchase -> h.svc.Purchase -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, order)
}

// HandleUploadProof godoc
// @Summary      Attach a payment proof to an order
// @Tags         orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        orderID  path      int   true  "order ID"
// @Param        proof    formData  file  true  "payment proof"
// @Success      200  {object}  domain.MerchandiseOrder
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /orders/{orderID}/proof [post]
// @Security BearerAuth
func (h *OrderHandler) HandleUploadProof(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	orderID, respErr := pathID(ctx, "orderID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	header, err := ctx.FormFile("proof")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("proof file is required: %w", err)))
		return
	}

	src, err := header.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	defer src.Close()

	rel, err := h.files.Save("proofs", header.Filename, src)
	if err != nil {
		err = fmt.Errorf("v1.HandleUploadProof -> h.files.Save -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	order, err := h.svc.UploadProof(ctx.Request.Context(), orderID, user.ID, domain.FileMeta{
		OriginalName: header.Filename,
		Path:         rel,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleUploadProof -> h.svc.UploadProof -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// HandleReviewOrder godoc
// @Summary      Approve or reject a pending order
// @Tags         organizer
// @Accept       json
// @Produce      json
// @Param        orderID  path  int                         true  "order ID"
// @Param        request  body  request.ReviewOrderRequest  true  "verdict"
// @Success      200  {object}  domain.MerchandiseOrder
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/orders/{orderID}/review [post]
// @Security BearerAuth
func (h *OrderHandler) HandleReviewOrder(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	orderID, respErr := pathID(ctx, "orderID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ReviewOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.Review(ctx.Request.Context(), service.ReviewInput{
		OrderID:    orderID,
		ReviewerID: user.ID,
		Action:     domain.ReviewAction(req.Action),
		Comment:    req.Comment,
	})
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleReviewOrder -> h.svc.Review -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// HandleCancelOrder godoc
// @Summary      Cancel one's own order
// @Tags         orders
// @Produce      json
// @Param        orderID  path  int  true  "order ID"
// @Success      200  {object}  domain.MerchandiseOrder
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /orders/{orderID}/cancel [post]
// @Security BearerAuth
func (h *OrderHandler) HandleCancelOrder(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	orderID, respErr := pathID(ctx, "orderID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	order, err := h.svc.Cancel(ctx.Request.Context(), orderID, user.ID)
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleCancelOrder -> h.svc.Cancel -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// HandleListEventOrders godoc
// @Summary      List orders of an owned event
// @Tags         organizer
// @Produce      json
// @Param        eventID  path   int     true   "event ID"
// @Param        status   query  string  false  "filter by order status"
// @Success      200  {array}   domain.MerchandiseOrder
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizer/events/{eventID}/orders [get]
// @Security BearerAuth
func (h *OrderHandler) HandleListEventOrders(ctx *gin.Context) {
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

	orders, err := h.svc.ListForEvent(ctx.Request.Context(), eventID, user.ID, domain.OrderStatus(ctx.Query("status")))
	if err != nil {
		if _, ok := domain.KindOf(err); ok {
			response.RenderErr(ctx, response.ErrDomain(err))
			return
		}

		err = fmt.Errorf("v1.HandleListEventOrders -> h.svc.ListForEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, orders)
}

// HandleMyOrders godoc
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Success      200  {array}   domain.MerchandiseOrder
// @Failure      500  {object}  response.Err
// @Router       /me/orders [get]
// @Security BearerAuth
func (h *OrderHandler) HandleMyOrders(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	orders, err := h.svc.ListMine(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyOrders -> h.svc.ListMine -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, orders)
}
