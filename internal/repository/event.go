package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
	ErrItemNotFound  = dao.ErrItemNotFound
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindByIDForOrganizer(ctx context.Context, id, organizerID uint) (dao.Event, error)
	List(ctx context.Context, filter dao.EventFilter) ([]dao.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uint) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event, items []dao.MerchandiseItem) (dao.Event, error)
	SetFormLocked(ctx context.Context, eventID uint) error
	Delete(ctx context.Context, eventID uint) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, eventDomainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return eventDaoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventDaoToDomain(found), nil
}

func (r *EventRepository) FindByIDForOrganizer(ctx context.Context, id, organizerID uint) (domain.Event, error) {
	found, err := r.dao.FindByIDForOrganizer(ctx, id, organizerID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByIDForOrganizer -> %w", err)
	}

	return eventDaoToDomain(found), nil
}

// EventQuery narrows List without leaking dao types into the service layer.
type EventQuery struct {
	Statuses    []domain.EventStatus
	Type        domain.EventType
	OrganizerID uint
	OrganizerIn []uint
	From        time.Time
	To          time.Time
}

func (r *EventRepository) List(ctx context.Context, query EventQuery) ([]domain.Event, error) {
	statuses := make([]string, 0, len(query.Statuses))
	for _, s := range query.Statuses {
		statuses = append(statuses, string(s))
	}

	found, err := r.dao.List(ctx, dao.EventFilter{
		Statuses:    statuses,
		Type:        string(query.Type),
		OrganizerID: query.OrganizerID,
		OrganizerIn: query.OrganizerIn,
		From:        query.From,
		To:          query.To,
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, eventDaoToDomain(e))
	}

	return events, nil
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	found, err := r.dao.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByOrganizer -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, eventDaoToDomain(e))
	}

	return events, nil
}

// Update persists the event row and, when replaceItems is set, replaces the
// merchandise rows with the event's current item set.
func (r *EventRepository) Update(ctx context.Context, event domain.Event, replaceItems bool) (domain.Event, error) {
	var items []dao.MerchandiseItem
	if replaceItems {
		items = itemsDomainToDao(event.ID, event.Merchandise)
	}

	updated, err := r.dao.Update(ctx, eventDomainToDao(event), items)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return eventDaoToDomain(updated), nil
}

func (r *EventRepository) LockCustomForm(ctx context.Context, eventID uint) error {
	if err := r.dao.SetFormLocked(ctx, eventID); err != nil {
		return fmt.Errorf("r.dao.SetFormLocked -> %w", err)
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, eventID uint) error {
	if err := r.dao.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func eventDomainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 string(e.Type),
		Eligibility:          mustJSON(e.Eligibility),
		Tags:                 mustJSON(e.Tags),
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		RegistrationFee:      e.RegistrationFee,
		TeamBased:            e.TeamBased,
		MaxTeamSize:          e.MaxTeamSize,
		CustomForm:           mustJSON(e.CustomForm),
		FormLocked:           e.FormLocked,
		Items:                itemsDomainToDao(e.ID, e.Merchandise),
		Status:               string(e.Status),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func eventDaoToDomain(e dao.Event) domain.Event {
	var eligibility []string
	_ = json.Unmarshal(e.Eligibility, &eligibility)

	var tags []string
	_ = json.Unmarshal(e.Tags, &tags)

	var form []domain.FormField
	_ = json.Unmarshal(e.CustomForm, &form)

	merchandise := make([]domain.MerchandiseItem, 0, len(e.Items))
	for _, item := range e.Items {
		merchandise = append(merchandise, domain.MerchandiseItem{
			SKU:           item.SKU,
			Name:          item.Name,
			Size:          item.Size,
			Color:         item.Color,
			Variant:       item.Variant,
			Price:         item.Price,
			Stock:         item.Stock,
			PurchaseLimit: item.PurchaseLimit,
		})
	}
	if len(merchandise) == 0 {
		merchandise = nil
	}

	return domain.Event{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 domain.EventType(e.Type),
		Eligibility:          eligibility,
		Tags:                 tags,
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		RegistrationFee:      e.RegistrationFee,
		TeamBased:            e.TeamBased,
		MaxTeamSize:          e.MaxTeamSize,
		CustomForm:           form,
		FormLocked:           e.FormLocked,
		Merchandise:          merchandise,
		Status:               domain.EventStatus(e.Status),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func itemsDomainToDao(eventID uint, items []domain.MerchandiseItem) []dao.MerchandiseItem {
	rows := make([]dao.MerchandiseItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, dao.MerchandiseItem{
			EventID:       eventID,
			SKU:           item.SKU,
			Name:          item.Name,
			Size:          item.Size,
			Color:         item.Color,
			Variant:       item.Variant,
			Price:         item.Price,
			Stock:         item.Stock,
			PurchaseLimit: item.PurchaseLimit,
		})
	}

	return rows
}
