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
	ErrAlreadyRegistered        = domain.ErrAlreadyRegistered
	ErrRegistrationLimitReached = domain.ErrRegistrationLimitReached
	ErrTeamAlreadyExists        = domain.ErrTeamAlreadyExists
)

type RegistrationRepository interface {
	CreateGuarded(ctx context.Context, registration domain.Registration, registrationLimit int) (domain.Registration, error)
	AttachTicket(ctx context.Context, registrationID, ticketID uint) error
	FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error)
	ListByEvent(ctx context.Context, eventID uint, statuses []domain.RegistrationStatus) ([]domain.Registration, error)
	ListByParticipant(ctx context.Context, participantID uint) ([]domain.Registration, error)
	CountOccupiedSpots(ctx context.Context, eventID uint) (int, error)
	ListTeams(ctx context.Context, eventID uint, maxTeamSize int) ([]domain.TeamOption, error)
}

type RegistrationEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	LockCustomForm(ctx context.Context, eventID uint) error
}

type RegistrationTicketRepository interface {
	Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
}

type FileStore interface {
	Delete(rel string) error
}

type RegistrationService struct {
	repo       RegistrationRepository
	eventRepo  RegistrationEventRepository
	ticketRepo RegistrationTicketRepository
	userRepo   EventUserRepository
	mail       MailSender
	files      FileStore
}

type MailSender interface {
	Send(to, subject, body string) error
}

func NewRegistrationService(
	repo RegistrationRepository,
	eventRepo RegistrationEventRepository,
	ticketRepo RegistrationTicketRepository,
	userRepo EventUserRepository,
	mail MailSender,
	files FileStore,
) *RegistrationService {
	return &RegistrationService{
		repo:       repo,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		mail:       mail,
		files:      files,
	}
}

// RegisterInput is one registration attempt. Responses holds the raw custom
// form answers; Files carries any uploaded attachments already stored on
// disk, keyed by fieldId.
type RegisterInput struct {
	EventID       uint
	ParticipantID uint
	Responses     map[string]any
	Files         map[string]domain.FileMeta
	TeamAction    domain.TeamAction
	TeamName      string
}

// Register admits a participant to a NORMAL event. Checks run in a fixed
// order so the caller always learns the most relevant failure: event state,
// duplicates, form validity, team rules, then capacity. The repository's
// transactional guard is the final authority under concurrency.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (domain.Registration, error) {
	registration, err := s.register(ctx, input)
	if err != nil {
		s.cleanupFiles(input.Files)
		return domain.Registration{}, err
	}

	return registration, nil
}

func (s *RegistrationService) register(ctx context.Context, input RegisterInput) (domain.Registration, error) {
	event, err := s.eventRepo.FindByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Registration{}, domain.ErrEventNotFound
		}

		return domain.Registration{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	if event.Type != domain.EventNormal {
		return domain.Registration{}, domain.StateViolation("merchandise events take orders, not registrations")
	}

	if ok, reason := event.Registrable(time.Now()); !ok {
		return domain.Registration{}, domain.StateViolation("%s", reason)
	}

	if _, err := s.repo.FindByEventAndParticipant(ctx, input.EventID, input.ParticipantID); err == nil {
		return domain.Registration{}, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrRegistrationNotFound) {
		return domain.Registration{}, fmt.Errorf("s.repo.FindByEventAndParticipant -> %w", err)
	}

	responses, violations := domain.ValidateResponses(event.CustomForm, input.Responses, input.Files)
	if len(violations) > 0 {
		return domain.Registration{}, domain.ValidationFailed("form validation failed", violations...)
	}

	teamName, err := s.resolveTeam(ctx, event, input)
	if err != nil {
		return domain.Registration{}, err
	}

	occupied, err := s.repo.CountOccupiedSpots(ctx, input.EventID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.CountOccupiedSpots -> %w", err)
	}
	if occupied >= event.RegistrationLimit {
		return domain.Registration{}, domain.ErrRegistrationLimitReached
	}

	registration, err := s.repo.CreateGuarded(ctx, domain.Registration{
		EventID:       input.EventID,
		ParticipantID: input.ParticipantID,
		Status:        domain.RegistrationRegistered,
		TeamName:      teamName,
		Responses:     responses,
	}, event.RegistrationLimit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRegistration):
			return domain.Registration{}, domain.ErrAlreadyRegistered
		case errors.Is(err, repository.ErrCapacityExhausted):
			return domain.Registration{}, domain.ErrRegistrationLimitReached
		}

		return domain.Registration{}, fmt.Errorf("s.repo.CreateGuarded -> %w", err)
	}

	ticket, err := s.issueTicket(ctx, registration)
	if err != nil {
		return domain.Registration{}, err
	}
	registration.TicketID = &ticket.ID

	if len(event.CustomForm) > 0 && !event.FormLocked {
		if err := s.eventRepo.LockCustomForm(ctx, event.ID); err != nil {
			return domain.Registration{}, fmt.Errorf("s.eventRepo.LockCustomForm -> %w", err)
		}
	}

	s.sendConfirmation(ctx, event, registration, ticket)

	return registration, nil
}

func (s *RegistrationService) resolveTeam(ctx context.Context, event domain.Event, input RegisterInput) (string, error) {
	if !event.TeamBased {
		return "", nil
	}

	teamName := domain.NormalizeTeamName(input.TeamName)
	if teamName == "" {
		return "", domain.ValidationFailed("team validation failed", "team name is required for team-based events")
	}
	if input.TeamAction != domain.TeamCreate && input.TeamAction != domain.TeamJoin {
		return "", domain.ValidationFailed("team validation failed", "team action must be create or join")
	}

	teams, err := s.repo.ListTeams(ctx, event.ID, event.MaxTeamSize)
	if err != nil {
		return "", fmt.Errorf("s.repo.ListTeams -> %w", err)
	}

	key := domain.TeamKey(teamName)
	var existing *domain.TeamOption
	for i := range teams {
		if teams[i].TeamKey == key {
			existing = &teams[i]
			break
		}
	}

	switch input.TeamAction {
	case domain.TeamCreate:
		if existing != nil {
			return "", domain.ErrTeamAlreadyExists
		}
	case domain.TeamJoin:
		if existing == nil {
			return "", domain.NotFound("team %q not found, create it instead", teamName)
		}
		if existing.IsFull {
			return "", domain.Conflict("team %q is full", existing.TeamName)
		}
		// Keep the original casing of the team that came first.
		teamName = existing.TeamName
	}

	return teamName, nil
}

func (s *RegistrationService) issueTicket(ctx context.Context, registration domain.Registration) (domain.Ticket, error) {
	ticketID, payload, qrData, err := ticketgen.Issue(registration.EventID, registration.ParticipantID, time.Now())
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("ticketgen.Issue -> %w", err)
	}

	ticket, err := s.ticketRepo.Create(ctx, domain.Ticket{
		TicketID:       ticketID,
		EventID:        registration.EventID,
		ParticipantID:  registration.ParticipantID,
		RegistrationID: &registration.ID,
		QRPayload:      payload,
		QRData:         qrData,
		Status:         domain.TicketActive,
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.ticketRepo.Create -> %w", err)
	}

	if err := s.repo.AttachTicket(ctx, registration.ID, ticket.ID); err != nil {
		return domain.Ticket{}, fmt.Errorf("s.repo.AttachTicket -> %w", err)
	}

	return ticket, nil
}

func (s *RegistrationService) sendConfirmation(ctx context.Context, event domain.Event, registration domain.Registration, ticket domain.Ticket) {
	if s.mail == nil {
		return
	}

	participant, err := s.userRepo.FindByID(ctx, registration.ParticipantID)
	if err != nil {
		return
	}

	go func() {
		subject := fmt.Sprintf("You're in: %s", event.Name)
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Your registration for <b>%s</b> is confirmed.</p><p>Ticket: <b>%s</b></p><img src=%q alt=\"QR\"/>",
			participant.DisplayName(), event.Name, ticket.TicketID, ticket.QRData)
		if err := s.mail.Send(participant.Email, subject, body); err != nil {
			zap.L().Warn("registration mail failed",
				zap.Uint("registration_id", registration.ID),
				zap.Error(err))
		}
	}()
}

func (s *RegistrationService) cleanupFiles(files map[string]domain.FileMeta) {
	if s.files == nil {
		return
	}

	for _, meta := range files {
		if err := s.files.Delete(meta.Path); err != nil {
			zap.L().Warn("upload cleanup failed", zap.String("path", meta.Path), zap.Error(err))
		}
	}
}

// TeamOptions lists the event's existing teams for the join picker.
func (s *RegistrationService) TeamOptions(ctx context.Context, eventID uint) ([]domain.TeamOption, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}

		return nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	if !event.TeamBased {
		return nil, domain.StateViolation("event is not team-based")
	}

	teams, err := s.repo.ListTeams(ctx, eventID, event.MaxTeamSize)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListTeams -> %w", err)
	}

	return teams, nil
}

// ListForEvent returns an event's registrations to its organizer.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID, organizerID uint) ([]domain.Registration, error) {
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

	registrations, err := s.repo.ListByEvent(ctx, eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	return registrations, nil
}

func (s *RegistrationService) ListMine(ctx context.Context, participantID uint) ([]domain.Registration, error) {
	registrations, err := s.repo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByParticipant -> %w", err)
	}

	return registrations, nil
}
