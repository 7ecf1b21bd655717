package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/pkg/ticketgen"
	"github.com/felicity-connect/backend/internal/repository"
)

var (
	ErrOrderNotFound   = domain.ErrOrderNotFound
	ErrOpenOrderExists = domain.ErrOpenOrderExists
	ErrStockExhausted  = domain.ErrStockExhausted
)

type OrderRepository interface {
	Create(ctx context.Context, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error)
	FindByID(ctx context.Context, id uint) (domain.MerchandiseOrder, error)
	Update(ctx context.Context, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error)
	FindOpen(ctx context.Context, eventID, participantID uint) (domain.MerchandiseOrder, error)
	CountedQuantity(ctx context.Context, eventID, participantID uint, itemSKU string) (int, error)
	ListByEvent(ctx context.Context, eventID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error)
	ListByParticipant(ctx context.Context, participantID uint) ([]domain.MerchandiseOrder, error)
	Approve(ctx context.Context, order domain.MerchandiseOrder, ticket domain.Ticket) (domain.MerchandiseOrder, domain.Ticket, error)
}

type OrderEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type OrderFileStore interface {
	Delete(rel string) error
}

type OrderService struct {
	repo      OrderRepository
	eventRepo OrderEventRepository
	userRepo  EventUserRepository
	mail      MailSender
	files     OrderFileStore
}

func NewOrderService(
	repo OrderRepository,
	eventRepo OrderEventRepository,
	userRepo EventUserRepository,
	mail MailSender,
	files OrderFileStore,
) *OrderService {
	return &OrderService{
		repo:      repo,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		mail:      mail,
		files:     files,
	}
}

// PurchaseInput is one order attempt against a merchandise event.
type PurchaseInput struct {
	EventID       uint
	ParticipantID uint
	ItemSKU       string
	Quantity      int
}

// Purchase creates an order in CREATED. No stock is reserved here; stock is
// only decremented at approval time. The checks give the participant a
// precise reason: open order, per-participant cap, then a friendly stock
// precheck.
func (s *OrderService) Purchase(ctx context.Context, input PurchaseInput) (domain.MerchandiseOrder, error) {
	if input.Quantity < 1 {
		return domain.MerchandiseOrder{}, domain.ValidationFailed("order validation failed", "quantity must be at least 1")
	}

	event, err := s.eventRepo.FindByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.MerchandiseOrder{}, domain.ErrEventNotFound
		}

		return domain.MerchandiseOrder{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	if event.Type != domain.EventMerchandise {
		return domain.MerchandiseOrder{}, domain.StateViolation("event does not sell merchandise")
	}
	if ok, reason := event.Registrable(time.Now()); !ok {
		return domain.MerchandiseOrder{}, domain.StateViolation("%s", reason)
	}

	item, found := event.Item(input.ItemSKU)
	if !found {
		return domain.MerchandiseOrder{}, domain.ErrItemNotFound
	}

	if _, err := s.repo.FindOpen(ctx, input.EventID, input.ParticipantID); err == nil {
		return domain.MerchandiseOrder{}, domain.ErrOpenOrderExists
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.FindOpen -> %w", err)
	}

	counted, err := s.repo.CountedQuantity(ctx, input.EventID, input.ParticipantID, input.ItemSKU)
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.CountedQuantity -> %w", err)
	}
	if counted+input.Quantity > item.PurchaseLimit {
		return domain.MerchandiseOrder{}, domain.Conflict(
			"purchase limit for %s is %d per participant", item.Name, item.PurchaseLimit)
	}

	// Friendly precheck only. The approval transaction re-checks stock.
	if input.Quantity > item.Stock {
		return domain.MerchandiseOrder{}, domain.Conflict("only %d of %s left in stock", item.Stock, item.Name)
	}

	order, err := s.repo.Create(ctx, domain.MerchandiseOrder{
		EventID:       input.EventID,
		ParticipantID: input.ParticipantID,
		ItemSKU:       input.ItemSKU,
		Quantity:      input.Quantity,
		Amount:        item.Price * input.Quantity,
		Status:        domain.OrderCreated,
	})
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return order, nil
}

// UploadProof attaches a payment proof and moves the order to
// PENDING_APPROVAL. Re-uploading replaces the previous proof and clears any
// earlier review verdict.
func (s *OrderService) UploadProof(ctx context.Context, orderID, participantID uint, proof domain.FileMeta) (domain.MerchandiseOrder, error) {
	order, err := s.findOwnOrder(ctx, orderID, participantID)
	if err != nil {
		s.deleteFile(proof.Path)
		return domain.MerchandiseOrder{}, err
	}

	if order.Status != domain.OrderCreated && order.Status != domain.OrderRejected {
		s.deleteFile(proof.Path)
		return domain.MerchandiseOrder{}, domain.StateViolation(
			"payment proof can only be uploaded while the order is %s or %s", domain.OrderCreated, domain.OrderRejected)
	}

	oldProof := order.PaymentProofPath

	order.PaymentProofPath = proof.Path
	order.PaymentProofName = proof.OriginalName
	order.PaymentProofMime = proof.MimeType
	order.Status = domain.OrderPendingApproval
	order.ReviewComment = ""
	order.ReviewedBy = nil
	order.ReviewedAt = nil

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		s.deleteFile(proof.Path)
		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if oldProof != "" && oldProof != proof.Path {
		s.deleteFile(oldProof)
	}

	return updated, nil
}

// ReviewInput is an organizer's verdict on one pending order.
type ReviewInput struct {
	OrderID    uint
	ReviewerID uint
	Action     domain.ReviewAction
	Comment    string
}

// Review approves or rejects a PENDING_APPROVAL order. Approval decrements
// stock and issues the ticket atomically; if stock ran out since the
// precheck, the order stays pending and the organizer gets a stock error.
func (s *OrderService) Review(ctx context.Context, input ReviewInput) (domain.MerchandiseOrder, error) {
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return domain.MerchandiseOrder{}, domain.ErrOrderNotFound
		}

		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	event, err := s.eventRepo.FindByID(ctx, order.EventID)
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganizerID != input.ReviewerID {
		return domain.MerchandiseOrder{}, domain.Forbidden("order belongs to another organizer's event")
	}

	if order.Status != domain.OrderPendingApproval {
		return domain.MerchandiseOrder{}, domain.StateViolation(
			"only %s orders can be reviewed", domain.OrderPendingApproval)
	}

	now := time.Now()
	order.ReviewComment = input.Comment
	order.ReviewedBy = &input.ReviewerID
	order.ReviewedAt = &now

	switch input.Action {
	case domain.ReviewApprove:
		return s.approve(ctx, event, order)
	case domain.ReviewReject:
		order.Status = domain.OrderRejected

		updated, err := s.repo.Update(ctx, order)
		if err != nil {
			return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.Update -> %w", err)
		}

		s.sendVerdict(ctx, event, updated, domain.Ticket{})

		return updated, nil
	default:
		return domain.MerchandiseOrder{}, domain.ValidationFailed("review validation failed", "action must be approve or reject")
	}
}

func (s *OrderService) approve(ctx context.Context, event domain.Event, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error) {
	ticketID, payload, qrData, err := ticketgen.Issue(order.EventID, order.ParticipantID, time.Now())
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("ticketgen.Issue -> %w", err)
	}

	order.Status = domain.OrderApproved

	updated, ticket, err := s.repo.Approve(ctx, order, domain.Ticket{
		TicketID:      ticketID,
		EventID:       order.EventID,
		ParticipantID: order.ParticipantID,
		OrderID:       &order.ID,
		QRPayload:     payload,
		QRData:        qrData,
		Status:        domain.TicketActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStockConflict) {
			return domain.MerchandiseOrder{}, domain.ErrStockExhausted
		}

		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.Approve -> %w", err)
	}

	s.sendVerdict(ctx, event, updated, ticket)

	return updated, nil
}

func (s *OrderService) sendVerdict(ctx context.Context, event domain.Event, order domain.MerchandiseOrder, ticket domain.Ticket) {
	if s.mail == nil {
		return
	}

	participant, err := s.userRepo.FindByID(ctx, order.ParticipantID)
	if err != nil {
		return
	}

	go func() {
		var subject, body string
		if order.Status == domain.OrderApproved {
			subject = fmt.Sprintf("Order approved: %s", event.Name)
			body = fmt.Sprintf(
				"<p>Hi %s,</p><p>Your order for <b>%s</b> was approved.</p><p>Ticket: <b>%s</b></p><img src=%q alt=\"QR\"/>",
				participant.DisplayName(), event.Name, ticket.TicketID, ticket.QRData)
		} else {
			subject = fmt.Sprintf("Order rejected: %s", event.Name)
			body = fmt.Sprintf(
				"<p>Hi %s,</p><p>Your order for <b>%s</b> was rejected.</p><p>Reason: %s</p><p>You may upload a new payment proof.</p>",
				participant.DisplayName(), event.Name, order.ReviewComment)
		}
		if err := s.mail.Send(participant.Email, subject, body); err != nil {
			zap.L().Warn("order verdict mail failed",
				zap.Uint("order_id", order.ID),
				zap.Error(err))
		}
	}()
}

// Cancel lets a participant withdraw an order that has not been approved.
func (s *OrderService) Cancel(ctx context.Context, orderID, participantID uint) (domain.MerchandiseOrder, error) {
	order, err := s.findOwnOrder(ctx, orderID, participantID)
	if err != nil {
		return domain.MerchandiseOrder{}, err
	}

	if order.Status == domain.OrderApproved || order.Status == domain.OrderCancelled {
		return domain.MerchandiseOrder{}, domain.StateViolation("a %s order cannot be cancelled", order.Status)
	}

	order.Status = domain.OrderCancelled

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *OrderService) findOwnOrder(ctx context.Context, orderID, participantID uint) (domain.MerchandiseOrder, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return domain.MerchandiseOrder{}, domain.ErrOrderNotFound
		}

		return domain.MerchandiseOrder{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if order.ParticipantID != participantID {
		return domain.MerchandiseOrder{}, domain.ErrOrderNotFound
	}

	return order, nil
}

// ListForEvent returns an event's orders to its organizer, optionally
// filtered by status.
func (s *OrderService) ListForEvent(ctx context.Context, eventID, organizerID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}

		return nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.Forbidden("event belongs to another organizer")
	}

	orders, err := s.repo.ListByEvent(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	return orders, nil
}

func (s *OrderService) ListMine(ctx context.Context, participantID uint) ([]domain.MerchandiseOrder, error) {
	orders, err := s.repo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByParticipant -> %w", err)
	}

	return orders, nil
}

func (s *OrderService) deleteFile(rel string) {
	if s.files == nil || rel == "" {
		return
	}
	if err := s.files.Delete(rel); err != nil {
		zap.L().Warn("proof cleanup failed", zap.String("path", rel), zap.Error(err))
	}
}
