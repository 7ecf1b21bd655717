package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

type fakeEventDAO struct {
	inserted dao.Event
	updated  dao.Event
	items    []dao.MerchandiseItem
}

func (f *fakeEventDAO) Insert(_ context.Context, event dao.Event) (dao.Event, error) {
	event.ID = 1
	for i := range event.Items {
		event.Items[i].ID = uint(i + 1)
		event.Items[i].EventID = event.ID
	}
	f.inserted = event

	return event, nil
}

func (f *fakeEventDAO) FindByID(_ context.Context, id uint) (dao.Event, error) {
	if f.inserted.ID == id {
		return f.inserted, nil
	}

	return dao.Event{}, dao.ErrEventNotFound
}

func (f *fakeEventDAO) FindByIDForOrganizer(_ context.Context, id, _ uint) (dao.Event, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeEventDAO) List(_ context.Context, _ dao.EventFilter) ([]dao.Event, error) {
	return nil, nil
}

func (f *fakeEventDAO) ListByOrganizer(_ context.Context, _ uint) ([]dao.Event, error) {
	return nil, nil
}

func (f *fakeEventDAO) Update(_ context.Context, event dao.Event, items []dao.MerchandiseItem) (dao.Event, error) {
	f.updated = event
	f.items = items

	return event, nil
}

func (f *fakeEventDAO) SetFormLocked(_ context.Context, _ uint) error { return nil }

func (f *fakeEventDAO) Delete(_ context.Context, _ uint) error { return nil }

func merchEventFixture() domain.Event {
	now := time.Now()

	return domain.Event{
		OrganizerID:          100,
		Name:                 "Fest Merch Drop",
		Description:          "Official fest merchandise",
		Type:                 domain.EventMerchandise,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    100,
		Status:               domain.StatusPublished,
		Merchandise: []domain.MerchandiseItem{
			{SKU: "tee-black-m", Name: "Fest Tee", Size: "M", Color: "black", Price: 499, Stock: 10, PurchaseLimit: 2},
			{SKU: "cap-one", Name: "Fest Cap", Price: 299, Stock: 5, PurchaseLimit: 1},
		},
	}
}

func TestEventDomainToDao_CarriesMerchandise(t *testing.T) {
	row := eventDomainToDao(merchEventFixture())

	require.Len(t, row.Items, 2)
	assert.Equal(t, "tee-black-m", row.Items[0].SKU)
	assert.Equal(t, 10, row.Items[0].Stock)
	assert.Equal(t, 2, row.Items[0].PurchaseLimit)
	assert.Equal(t, "cap-one", row.Items[1].SKU)
}

func TestEventRepository_Create_PersistsMerchandise(t *testing.T) {
	d := &fakeEventDAO{}
	repo := NewEventRepository(d)

	created, err := repo.Create(context.Background(), merchEventFixture())
	require.NoError(t, err)

	require.Len(t, d.inserted.Items, 2)
	assert.Equal(t, d.inserted.ID, d.inserted.Items[0].EventID)

	require.Len(t, created.Merchandise, 2)
	assert.Equal(t, "tee-black-m", created.Merchandise[0].SKU)
	assert.Equal(t, 499, created.Merchandise[0].Price)
}
