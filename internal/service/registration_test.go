package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
)

type fakeRegistrationRepo struct {
	registrations map[uint]domain.Registration // by participant
	occupied      int
	teams         []domain.TeamOption
	createErr     error
	lockedForm    bool

	created *domain.Registration
	nextID  uint
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		registrations: make(map[uint]domain.Registration),
		nextID:        1,
	}
}

func (f *fakeRegistrationRepo) CreateGuarded(_ context.Context, registration domain.Registration, _ int) (domain.Registration, error) {
	if f.createErr != nil {
		return domain.Registration{}, f.createErr
	}

	registration.ID = f.nextID
	f.nextID++
	f.registrations[registration.ParticipantID] = registration
	f.created = &registration

	return registration, nil
}

func (f *fakeRegistrationRepo) AttachTicket(_ context.Context, _, _ uint) error { return nil }

func (f *fakeRegistrationRepo) FindByEventAndParticipant(_ context.Context, _, participantID uint) (domain.Registration, error) {
	if registration, ok := f.registrations[participantID]; ok {
		return registration, nil
	}

	return domain.Registration{}, repository.ErrRegistrationNotFound
}

func (f *fakeRegistrationRepo) ListByEvent(_ context.Context, _ uint, _ []domain.RegistrationStatus) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, registration := range f.registrations {
		out = append(out, registration)
	}

	return out, nil
}

func (f *fakeRegistrationRepo) ListByParticipant(_ context.Context, participantID uint) ([]domain.Registration, error) {
	if registration, ok := f.registrations[participantID]; ok {
		return []domain.Registration{registration}, nil
	}

	return nil, nil
}

func (f *fakeRegistrationRepo) CountOccupiedSpots(_ context.Context, _ uint) (int, error) {
	return f.occupied, nil
}

func (f *fakeRegistrationRepo) ListTeams(_ context.Context, _ uint, _ int) ([]domain.TeamOption, error) {
	return f.teams, nil
}

type fakeEventRepo struct {
	events     map[uint]domain.Event
	formLocked map[uint]bool
}

func newFakeEventRepo(events ...domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{
		events:     make(map[uint]domain.Event),
		formLocked: make(map[uint]bool),
	}
	for _, event := range events {
		f.events[event.ID] = event
	}

	return f
}

func (f *fakeEventRepo) FindByID(_ context.Context, id uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return event, nil
}

func (f *fakeEventRepo) LockCustomForm(_ context.Context, eventID uint) error {
	f.formLocked[eventID] = true
	return nil
}

type fakeTicketRepo struct {
	nextID  uint
	tickets []domain.Ticket
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	f.nextID++
	ticket.ID = f.nextID
	f.tickets = append(f.tickets, ticket)

	return ticket, nil
}

type fakeUserRepo struct {
	users map[uint]domain.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) Send(to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)

	return nil
}

type fakeFileStore struct {
	deleted []string
}

func (f *fakeFileStore) Delete(rel string) error {
	f.deleted = append(f.deleted, rel)
	return nil
}

func openEvent(id uint) domain.Event {
	now := time.Now()

	return domain.Event{
		ID:                   id,
		OrganizerID:          100,
		Name:                 "Hackathon",
		Type:                 domain.EventNormal,
		Status:               domain.StatusPublished,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    3,
		CustomForm: []domain.FormField{
			{FieldID: "github", Label: "GitHub handle", Type: domain.FieldText, Required: true},
		},
	}
}

func newRegistrationService(repo *fakeRegistrationRepo, eventRepo *fakeEventRepo) (*RegistrationService, *fakeTicketRepo, *fakeMailer, *fakeFileStore) {
	tickets := &fakeTicketRepo{}
	mail := &fakeMailer{}
	files := &fakeFileStore{}
	users := &fakeUserRepo{users: map[uint]domain.User{
		1: {ID: 1, Email: "asha@example.com", FirstName: "Asha"},
	}}

	return NewRegistrationService(repo, eventRepo, tickets, users, mail, files), tickets, mail, files
}

func TestRegistrationService_Register(t *testing.T) {
	input := RegisterInput{
		EventID:       1,
		ParticipantID: 1,
		Responses:     map[string]any{"github": "asha-dev"},
	}

	t.Run("success issues a ticket and locks the form", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		eventRepo := newFakeEventRepo(openEvent(1))
		svc, tickets, _, _ := newRegistrationService(repo, eventRepo)

		registration, err := svc.Register(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, domain.RegistrationRegistered, registration.Status)
		assert.Equal(t, "asha-dev", registration.Responses["github"].Text)
		require.NotNil(t, registration.TicketID)

		require.Len(t, tickets.tickets, 1)
		assert.Contains(t, tickets.tickets[0].TicketID, "FEL-")
		assert.True(t, eventRepo.formLocked[1])
	})

	t.Run("duplicate registration is a conflict", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		repo.registrations[1] = domain.Registration{ID: 9, EventID: 1, ParticipantID: 1}
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(openEvent(1)))

		_, err := svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	})

	t.Run("capacity precheck rejects a full event", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		repo.occupied = 3
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(openEvent(1)))

		_, err := svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrRegistrationLimitReached)
	})

	t.Run("guard race maps to the same conflict", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		repo.createErr = repository.ErrCapacityExhausted
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(openEvent(1)))

		_, err := svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrRegistrationLimitReached)
	})

	t.Run("merchandise events refuse registrations", func(t *testing.T) {
		event := openEvent(1)
		event.Type = domain.EventMerchandise
		event.CustomForm = nil
		svc, _, _, _ := newRegistrationService(newFakeRegistrationRepo(), newFakeEventRepo(event))

		_, err := svc.Register(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindStateViolation, kind)
	})

	t.Run("past deadline refuses registrations", func(t *testing.T) {
		event := openEvent(1)
		event.RegistrationDeadline = time.Now().Add(-time.Hour)
		svc, _, _, _ := newRegistrationService(newFakeRegistrationRepo(), newFakeEventRepo(event))

		_, err := svc.Register(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindStateViolation, kind)
	})

	t.Run("form violations are collected and uploads cleaned up", func(t *testing.T) {
		svc, _, _, files := newRegistrationService(newFakeRegistrationRepo(), newFakeEventRepo(openEvent(1)))

		bad := input
		bad.Responses = map[string]any{}
		bad.Files = map[string]domain.FileMeta{"resume": {Path: "registrations/orphan.pdf"}}

		_, err := svc.Register(context.Background(), bad)

		var domainErr *domain.Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.KindValidationFailed, domainErr.Kind)
		assert.Contains(t, domainErr.Violations[0], "GitHub handle")

		assert.Equal(t, []string{"registrations/orphan.pdf"}, files.deleted)
	})
}

func TestRegistrationService_Register_Teams(t *testing.T) {
	teamEvent := openEvent(1)
	teamEvent.TeamBased = true
	teamEvent.MaxTeamSize = 3

	base := RegisterInput{
		EventID:       1,
		ParticipantID: 1,
		Responses:     map[string]any{"github": "asha-dev"},
	}

	t.Run("create claims a free team name", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(teamEvent))

		input := base
		input.TeamAction = domain.TeamCreate
		input.TeamName = "  Null  Pointers "

		registration, err := svc.Register(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "Null Pointers", registration.TeamName)
	})

	t.Run("create fails when the team exists", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		repo.teams = []domain.TeamOption{{TeamKey: "null pointers", TeamName: "Null Pointers", MemberCount: 1}}
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(teamEvent))

		input := base
		input.TeamAction = domain.TeamCreate
		input.TeamName = "null POINTERS"

		_, err := svc.Register(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrTeamAlreadyExists)
	})

	t.Run("join adopts the original casing", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		repo.teams = []domain.TeamOption{{TeamKey: "null pointers", TeamName: "Null Pointers", MemberCount: 2, AvailableSpots: 1}}
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(teamEvent))

		input := base
		input.TeamAction = domain.TeamJoin
		input.TeamName = "NULL pointers"

		registration, err := svc.Register(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "Null Pointers", registration.TeamName)
	})

	t.Run("join refuses a full team", func(t *testing.T) {
		repo := newFakeRegistrationRepo()
		repo.teams = []domain.TeamOption{{TeamKey: "null pointers", TeamName: "Null Pointers", MemberCount: 3, IsFull: true}}
		svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(teamEvent))

		input := base
		input.TeamAction = domain.TeamJoin
		input.TeamName = "Null Pointers"

		_, err := svc.Register(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindConflict, kind)
	})

	t.Run("join of a missing team suggests creating it", func(t *testing.T) {
		svc, _, _, _ := newRegistrationService(newFakeRegistrationRepo(), newFakeEventRepo(teamEvent))

		input := base
		input.TeamAction = domain.TeamJoin
		input.TeamName = "Ghosts"

		_, err := svc.Register(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindNotFound, kind)
	})

	t.Run("team name is required", func(t *testing.T) {
		svc, _, _, _ := newRegistrationService(newFakeRegistrationRepo(), newFakeEventRepo(teamEvent))

		input := base
		input.TeamAction = domain.TeamCreate

		_, err := svc.Register(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindValidationFailed, kind)
	})
}

func TestRegistrationService_ListForEvent(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.registrations[1] = domain.Registration{ID: 5, EventID: 1, ParticipantID: 1}
	svc, _, _, _ := newRegistrationService(repo, newFakeEventRepo(openEvent(1)))

	registrations, err := svc.ListForEvent(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Len(t, registrations, 1)

	_, err = svc.ListForEvent(context.Background(), 1, 999)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindForbidden, kind)
}

func TestRegistrationService_TeamOptions(t *testing.T) {
	event := openEvent(1)
	svc, _, _, _ := newRegistrationService(newFakeRegistrationRepo(), newFakeEventRepo(event))

	_, err := svc.TeamOptions(context.Background(), 1)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindStateViolation, kind)

	_, err = svc.TeamOptions(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}
