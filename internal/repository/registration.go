package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var (
	ErrRegistrationNotFound  = dao.ErrRegistrationNotFound
	ErrDuplicateRegistration = dao.ErrDuplicateRegistration
	ErrCapacityExhausted     = dao.ErrCapacityExhausted
)

type RegistrationDAO interface {
	InsertGuarded(ctx context.Context, registration dao.Registration, registrationLimit int) (dao.Registration, error)
	SetTicket(ctx context.Context, registrationID, ticketID uint) error
	FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (dao.Registration, error)
	ListByEvent(ctx context.Context, eventID uint, statuses []string) ([]dao.Registration, error)
	ListByParticipant(ctx context.Context, participantID uint) ([]dao.Registration, error)
	CountActiveByEvent(ctx context.Context, eventID uint) (int, error)
	GroupTeams(ctx context.Context, eventID uint) ([]dao.TeamRow, error)
}

type OrderSumDAO interface {
	SumApprovedQuantityByEvent(ctx context.Context, eventID uint) (int, error)
}

type RegistrationRepository struct {
	dao      RegistrationDAO
	orderDAO OrderSumDAO
}

func NewRegistrationRepository(dao RegistrationDAO, orderDAO OrderSumDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao:      dao,
		orderDAO: orderDAO,
	}
}

// CreateGuarded admits the registration through the transactional capacity
// and duplicate guard.
func (r *RegistrationRepository) CreateGuarded(ctx context.Context, registration domain.Registration, registrationLimit int) (domain.Registration, error) {
	created, err := r.dao.InsertGuarded(ctx, registrationDomainToDao(registration), registrationLimit)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertGuarded -> %w", err)
	}

	return registrationDaoToDomain(created), nil
}

func (r *RegistrationRepository) AttachTicket(ctx context.Context, registrationID, ticketID uint) error {
	if err := r.dao.SetTicket(ctx, registrationID, ticketID); err != nil {
		return fmt.Errorf("r.dao.SetTicket -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error) {
	found, err := r.dao.FindByEventAndParticipant(ctx, eventID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByEventAndParticipant -> %w", err)
	}

	return registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID uint, statuses []domain.RegistrationStatus) ([]domain.Registration, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}

	found, err := r.dao.ListByEvent(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	registrations := make([]domain.Registration, 0, len(found))
	for _, reg := range found {
		registrations = append(registrations, registrationDaoToDomain(reg))
	}

	return registrations, nil
}

func (r *RegistrationRepository) ListByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	found, err := r.dao.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByParticipant -> %w", err)
	}

	registrations := make([]domain.Registration, 0, len(found))
	for _, reg := range found {
		registrations = append(registrations, registrationDaoToDomain(reg))
	}

	return registrations, nil
}

// CountOccupiedSpots is the read-only occupancy figure shown in listings:
// active registrations plus approved merchandise quantities.
func (r *RegistrationRepository) CountOccupiedSpots(ctx context.Context, eventID uint) (int, error) {
	registrations, err := r.dao.CountActiveByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountActiveByEvent -> %w", err)
	}

	approved, err := r.orderDAO.SumApprovedQuantityByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.orderDAO.SumApprovedQuantityByEvent -> %w", err)
	}

	return registrations + approved, nil
}

// ListTeams returns the event's teams with availability computed against
// maxTeamSize.
func (r *RegistrationRepository) ListTeams(ctx context.Context, eventID uint, maxTeamSize int) ([]domain.TeamOption, error) {
	rows, err := r.dao.GroupTeams(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.GroupTeams -> %w", err)
	}

	teams := make([]domain.TeamOption, 0, len(rows))
	for _, row := range rows {
		available := maxTeamSize - row.MemberCount
		if available < 0 {
			available = 0
		}
		teams = append(teams, domain.TeamOption{
			TeamKey:        row.TeamKey,
			TeamName:       row.TeamName,
			MemberCount:    row.MemberCount,
			AvailableSpots: available,
			IsFull:         row.MemberCount >= maxTeamSize,
		})
	}

	return teams, nil
}

func registrationDomainToDao(r domain.Registration) dao.Registration {
	return dao.Registration{
		ID:            r.ID,
		EventID:       r.EventID,
		ParticipantID: r.ParticipantID,
		Status:        string(r.Status),
		TeamName:      r.TeamName,
		Responses:     mustJSON(r.Responses),
		TicketID:      r.TicketID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func registrationDaoToDomain(r dao.Registration) domain.Registration {
	var responses map[string]domain.FieldValue
	_ = json.Unmarshal(r.Responses, &responses)

	return domain.Registration{
		ID:            r.ID,
		EventID:       r.EventID,
		ParticipantID: r.ParticipantID,
		Status:        domain.RegistrationStatus(r.Status),
		TeamName:      r.TeamName,
		Responses:     responses,
		TicketID:      r.TicketID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
