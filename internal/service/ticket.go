package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/pkg/calendar"
	"github.com/felicity-connect/backend/internal/repository"
)

var ErrTicketNotFound = domain.ErrTicketNotFound

type TicketRepository interface {
	FindByTicketID(ctx context.Context, ticketID string) (domain.Ticket, error)
	ListByParticipant(ctx context.Context, participantID uint) ([]domain.Ticket, error)
}

type TicketEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type TicketService struct {
	repo      TicketRepository
	eventRepo TicketEventRepository
}

func NewTicketService(repo TicketRepository, eventRepo TicketEventRepository) *TicketService {
	return &TicketService{
		repo:      repo,
		eventRepo: eventRepo,
	}
}

// TicketView pairs a ticket with its event and add-to-calendar links.
type TicketView struct {
	Ticket domain.Ticket `json:"ticket"`

	EventName  string `json:"event_name"`
	EventStart string `json:"event_start"`
	EventEnd   string `json:"event_end"`

	GoogleCalendarLink  string `json:"google_calendar_link"`
	OutlookCalendarLink string `json:"outlook_calendar_link"`
}

// Find returns one ticket to its owner.
func (s *TicketService) Find(ctx context.Context, ticketID string, participantID uint) (TicketView, error) {
	ticket, err := s.repo.FindByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return TicketView{}, domain.ErrTicketNotFound
		}

		return TicketView{}, fmt.Errorf("s.repo.FindByTicketID -> %w", err)
	}
	if ticket.ParticipantID != participantID {
		return TicketView{}, domain.ErrTicketNotFound
	}

	return s.buildView(ctx, ticket)
}

// ListMine returns all of a participant's tickets, newest first.
func (s *TicketService) ListMine(ctx context.Context, participantID uint) ([]TicketView, error) {
	tickets, err := s.repo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByParticipant -> %w", err)
	}

	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view, err := s.buildView(ctx, ticket)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// ICS renders the calendar file for a ticket's event.
func (s *TicketService) ICS(ctx context.Context, ticketID string, participantID uint) (string, error) {
	ticket, err := s.repo.FindByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return "", domain.ErrTicketNotFound
		}

		return "", fmt.Errorf("s.repo.FindByTicketID -> %w", err)
	}
	if ticket.ParticipantID != participantID {
		return "", domain.ErrTicketNotFound
	}

	event, err := s.eventRepo.FindByID(ctx, ticket.EventID)
	if err != nil {
		return "", fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	return calendar.ICS(event), nil
}

func (s *TicketService) buildView(ctx context.Context, ticket domain.Ticket) (TicketView, error) {
	view := TicketView{Ticket: ticket}

	event, err := s.eventRepo.FindByID(ctx, ticket.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return view, nil
		}

		return TicketView{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	view.EventName = event.Name
	view.EventStart = event.StartDate.Format("2006-01-02 15:04")
	view.EventEnd = event.EndDate.Format("2006-01-02 15:04")
	view.GoogleCalendarLink = calendar.GoogleLink(event)
	view.OutlookCalendarLink = calendar.OutlookLink(event)

	return view, nil
}
