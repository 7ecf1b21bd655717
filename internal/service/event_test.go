package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
)

type fakeEventStore struct {
	events map[uint]domain.Event

	createdWithItems []domain.MerchandiseItem
	replacedItems    bool
}

func (f *fakeEventStore) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	event.ID = uint(len(f.events) + 1)
	f.events[event.ID] = event
	f.createdWithItems = event.Merchandise

	return event, nil
}

func (f *fakeEventStore) FindByID(_ context.Context, id uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return event, nil
}

func (f *fakeEventStore) FindByIDForOrganizer(_ context.Context, id, organizerID uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok || event.OrganizerID != organizerID {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return event, nil
}

func (f *fakeEventStore) List(_ context.Context, _ repository.EventQuery) ([]domain.Event, error) {
	return nil, nil
}

func (f *fakeEventStore) ListByOrganizer(_ context.Context, _ uint) ([]domain.Event, error) {
	return nil, nil
}

func (f *fakeEventStore) Update(_ context.Context, event domain.Event, replaceItems bool) (domain.Event, error) {
	f.events[event.ID] = event
	f.replacedItems = replaceItems

	return event, nil
}

func (f *fakeEventStore) Delete(_ context.Context, eventID uint) error {
	delete(f.events, eventID)
	return nil
}

type fakeEventRegistrations struct{}

func (f *fakeEventRegistrations) CountOccupiedSpots(_ context.Context, _ uint) (int, error) {
	return 0, nil
}

func (f *fakeEventRegistrations) ListByEvent(_ context.Context, _ uint, _ []domain.RegistrationStatus) ([]domain.Registration, error) {
	return nil, nil
}

func (f *fakeEventRegistrations) ListTeams(_ context.Context, _ uint, _ int) ([]domain.TeamOption, error) {
	return nil, nil
}

func (f *fakeEventRegistrations) FindByEventAndParticipant(_ context.Context, _, _ uint) (domain.Registration, error) {
	return domain.Registration{}, repository.ErrRegistrationNotFound
}

type fakeEventOrders struct{}

func (f *fakeEventOrders) FindOpen(_ context.Context, _, _ uint) (domain.MerchandiseOrder, error) {
	return domain.MerchandiseOrder{}, repository.ErrOrderNotFound
}

func (f *fakeEventOrders) ListByEvent(_ context.Context, _ uint, _ domain.OrderStatus) ([]domain.MerchandiseOrder, error) {
	return nil, nil
}

type fakeEventUsers struct{}

func (f *fakeEventUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	return domain.User{ID: id}, nil
}

type noopNotifier struct{}

func (n *noopNotifier) NotifyEventPublished(_ context.Context, _ string, _ domain.Event) error {
	return nil
}

func newEventFixture(events ...domain.Event) (*EventService, *fakeEventStore) {
	store := &fakeEventStore{events: make(map[uint]domain.Event)}
	for _, event := range events {
		store.events[event.ID] = event
	}

	svc := NewEventService(store, &fakeEventRegistrations{}, &fakeEventOrders{}, &fakeEventUsers{}, &noopNotifier{})

	return svc, store
}

func publishedEvent(id uint) domain.Event {
	now := time.Now()

	return domain.Event{
		ID:                   id,
		OrganizerID:          100,
		Name:                 "Hackathon",
		Description:          "24h build",
		Type:                 domain.EventNormal,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    50,
		CustomForm:           []domain.FormField{{FieldID: "github", Label: "GitHub handle", Type: domain.FieldText, Required: true}},
		Status:               domain.StatusPublished,
	}
}

func TestEventService_Update_BlockedFields(t *testing.T) {
	t.Run("renaming a published event lists the blocked field", func(t *testing.T) {
		svc, _ := newEventFixture(publishedEvent(1))
		name := "New Name"

		_, err := svc.Update(context.Background(), 1, 100, UpdateInput{Name: &name})
		require.Error(t, err)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindValidationFailed, kind)

		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Violations, "name")
	})

	t.Run("all blocked fields are reported together", func(t *testing.T) {
		svc, _ := newEventFixture(publishedEvent(1))
		name := "New Name"
		teamBased := true

		_, err := svc.Update(context.Background(), 1, 100, UpdateInput{Name: &name, TeamBased: &teamBased})

		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, []string{"name", "team_based"}, de.Violations)
	})

	t.Run("raising the limit on a published event succeeds", func(t *testing.T) {
		svc, store := newEventFixture(publishedEvent(1))
		limit := 80

		updated, err := svc.Update(context.Background(), 1, 100, UpdateInput{RegistrationLimit: &limit})
		require.NoError(t, err)

		assert.Equal(t, 80, updated.RegistrationLimit)
		assert.Equal(t, 80, store.events[1].RegistrationLimit)
	})

	t.Run("lowering the limit on a published event is rejected", func(t *testing.T) {
		svc, _ := newEventFixture(publishedEvent(1))
		limit := 10

		_, err := svc.Update(context.Background(), 1, 100, UpdateInput{RegistrationLimit: &limit})

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindStateViolation, kind)
	})
}

func TestEventService_Create_KeepsMerchandise(t *testing.T) {
	svc, store := newEventFixture()
	now := time.Now()

	created, err := svc.Create(context.Background(), domain.Event{
		OrganizerID:          100,
		Name:                 "Merch Drop",
		Description:          "Official fest merchandise",
		Type:                 domain.EventMerchandise,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    100,
		Status:               domain.StatusPublished,
		Merchandise: []domain.MerchandiseItem{
			{SKU: "tee-black-m", Name: "Fest Tee", Price: 499, Stock: 10, PurchaseLimit: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, store.createdWithItems, 1)
	assert.Equal(t, "tee-black-m", store.createdWithItems[0].SKU)
	require.Len(t, created.Merchandise, 1)
}
