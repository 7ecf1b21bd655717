package repository

import (
	"context"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var ErrTicketNotFound = dao.ErrTicketNotFound

type TicketDAO interface {
	Insert(ctx context.Context, ticket dao.Ticket) (dao.Ticket, error)
	FindByID(ctx context.Context, id uint) (dao.Ticket, error)
	FindByTicketID(ctx context.Context, ticketID string) (dao.Ticket, error)
	FindByTicketIDAndEvent(ctx context.Context, ticketID string, eventID uint) (dao.Ticket, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	ListByParticipant(ctx context.Context, participantID uint) ([]dao.Ticket, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	created, err := r.dao.Insert(ctx, ticketDomainToDao(ticket))
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return ticketDaoToDomain(created), nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id uint) (domain.Ticket, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return ticketDaoToDomain(found), nil
}

func (r *TicketRepository) FindByTicketID(ctx context.Context, ticketID string) (domain.Ticket, error) {
	found, err := r.dao.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByTicketID -> %w", err)
	}

	return ticketDaoToDomain(found), nil
}

func (r *TicketRepository) FindByTicketIDAndEvent(ctx context.Context, ticketID string, eventID uint) (domain.Ticket, error) {
	found, err := r.dao.FindByTicketIDAndEvent(ctx, ticketID, eventID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByTicketIDAndEvent -> %w", err)
	}

	return ticketDaoToDomain(found), nil
}

func (r *TicketRepository) SetStatus(ctx context.Context, id uint, status domain.TicketStatus) error {
	if err := r.dao.UpdateStatus(ctx, id, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *TicketRepository) ListByParticipant(ctx context.Context, participantID uint) ([]domain.Ticket, error) {
	found, err := r.dao.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByParticipant -> %w", err)
	}

	tickets := make([]domain.Ticket, 0, len(found))
	for _, t := range found {
		tickets = append(tickets, ticketDaoToDomain(t))
	}

	return tickets, nil
}

func ticketDomainToDao(t domain.Ticket) dao.Ticket {
	return dao.Ticket{
		ID:             t.ID,
		TicketID:       t.TicketID,
		EventID:        t.EventID,
		ParticipantID:  t.ParticipantID,
		RegistrationID: t.RegistrationID,
		OrderID:        t.OrderID,
		QRPayload:      t.QRPayload,
		QRData:         t.QRData,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}

func ticketDaoToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:             t.ID,
		TicketID:       t.TicketID,
		EventID:        t.EventID,
		ParticipantID:  t.ParticipantID,
		RegistrationID: t.RegistrationID,
		OrderID:        t.OrderID,
		QRPayload:      t.QRPayload,
		QRData:         t.QRData,
		Status:         domain.TicketStatus(t.Status),
		CreatedAt:      t.CreatedAt,
	}
}
