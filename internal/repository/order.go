package repository

import (
	"context"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var (
	ErrOrderNotFound = dao.ErrOrderNotFound
	ErrStockConflict = dao.ErrStockConflict
)

type OrderDAO interface {
	Insert(ctx context.Context, order dao.MerchandiseOrder) (dao.MerchandiseOrder, error)
	FindByID(ctx context.Context, id uint) (dao.MerchandiseOrder, error)
	Update(ctx context.Context, order dao.MerchandiseOrder) (dao.MerchandiseOrder, error)
	FindOpenByEventAndParticipant(ctx context.Context, eventID, participantID uint) (dao.MerchandiseOrder, error)
	SumCountedQuantity(ctx context.Context, eventID, participantID uint, itemSKU string) (int, error)
	ListByEvent(ctx context.Context, eventID uint, status string) ([]dao.MerchandiseOrder, error)
	ListByParticipant(ctx context.Context, participantID uint) ([]dao.MerchandiseOrder, error)
	Approve(ctx context.Context, order dao.MerchandiseOrder, ticket dao.Ticket) (dao.MerchandiseOrder, dao.Ticket, error)
}

type OrderRepository struct {
	dao OrderDAO
}

func NewOrderRepository(dao OrderDAO) *OrderRepository {
	return &OrderRepository{
		dao: dao,
	}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error) {
	created, err := r.dao.Insert(ctx, orderDomainToDao(order))
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return orderDaoToDomain(created), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (domain.MerchandiseOrder, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return orderDaoToDomain(found), nil
}

func (r *OrderRepository) Update(ctx context.Context, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error) {
	updated, err := r.dao.Update(ctx, orderDomainToDao(order))
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return orderDaoToDomain(updated), nil
}

// FindOpen returns the participant's CREATED or PENDING_APPROVAL order for
// the event, or ErrOrderNotFound.
func (r *OrderRepository) FindOpen(ctx context.Context, eventID, participantID uint) (domain.MerchandiseOrder, error) {
	found, err := r.dao.FindOpenByEventAndParticipant(ctx, eventID, participantID)
	if err != nil {
		return domain.MerchandiseOrder{}, fmt.Errorf("r.dao.FindOpenByEventAndParticipant -> %w", err)
	}

	return orderDaoToDomain(found), nil
}

func (r *OrderRepository) CountedQuantity(ctx context.Context, eventID, participantID uint, itemSKU string) (int, error) {
	total, err := r.dao.SumCountedQuantity(ctx, eventID, participantID, itemSKU)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumCountedQuantity -> %w", err)
	}

	return total, nil
}

func (r *OrderRepository) ListByEvent(ctx context.Context, eventID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error) {
	found, err := r.dao.ListByEvent(ctx, eventID, string(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	orders := make([]domain.MerchandiseOrder, 0, len(found))
	for _, o := range found {
		orders = append(orders, orderDaoToDomain(o))
	}

	return orders, nil
}

func (r *OrderRepository) ListByParticipant(ctx context.Context, participantID uint) ([]domain.MerchandiseOrder, error) {
	found, err := r.dao.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByParticipant -> %w", err)
	}

	orders := make([]domain.MerchandiseOrder, 0, len(found))
	for _, o := range found {
		orders = append(orders, orderDaoToDomain(o))
	}

	return orders, nil
}

// Approve finalizes the approval atomically: stock decrement, ticket row and
// order update commit or roll back together. ErrStockConflict means a
// concurrent approval drained the stock first.
func (r *OrderRepository) Approve(ctx context.Context, order domain.MerchandiseOrder, ticket domain.Ticket) (domain.MerchandiseOrder, domain.Ticket, error) {
	updatedOrder, createdTicket, err := r.dao.Approve(ctx, orderDomainToDao(order), ticketDomainToDao(ticket))
	if err != nil {
		return domain.MerchandiseOrder{}, domain.Ticket{}, fmt.Errorf("r.dao.Approve -> %w", err)
	}

	return orderDaoToDomain(updatedOrder), ticketDaoToDomain(createdTicket), nil
}

func orderDomainToDao(o domain.MerchandiseOrder) dao.MerchandiseOrder {
	return dao.MerchandiseOrder{
		ID:               o.ID,
		EventID:          o.EventID,
		ParticipantID:    o.ParticipantID,
		ItemSKU:          o.ItemSKU,
		Quantity:         o.Quantity,
		Amount:           o.Amount,
		Status:           string(o.Status),
		PaymentProofPath: o.PaymentProofPath,
		PaymentProofName: o.PaymentProofName,
		PaymentProofMime: o.PaymentProofMime,
		ReviewComment:    o.ReviewComment,
		ReviewedBy:       o.ReviewedBy,
		ReviewedAt:       o.ReviewedAt,
		TicketID:         o.TicketID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func orderDaoToDomain(o dao.MerchandiseOrder) domain.MerchandiseOrder {
	return domain.MerchandiseOrder{
		ID:               o.ID,
		EventID:          o.EventID,
		ParticipantID:    o.ParticipantID,
		ItemSKU:          o.ItemSKU,
		Quantity:         o.Quantity,
		Amount:           o.Amount,
		Status:           domain.OrderStatus(o.Status),
		PaymentProofPath: o.PaymentProofPath,
		PaymentProofName: o.PaymentProofName,
		PaymentProofMime: o.PaymentProofMime,
		ReviewComment:    o.ReviewComment,
		ReviewedBy:       o.ReviewedBy,
		ReviewedAt:       o.ReviewedAt,
		TicketID:         o.TicketID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
