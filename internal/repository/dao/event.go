package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrItemNotFound  = errors.New("merchandise item not found")
	ErrStockConflict = errors.New("insufficient stock")
)

type Event struct {
	ID          uint   `gorm:"primaryKey"`
	OrganizerID uint   `gorm:"not null;index:idx_events_organizer_status"`
	Name        string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null;index"`

	Eligibility datatypes.JSON
	Tags        datatypes.JSON

	RegistrationDeadline time.Time `gorm:"not null"`
	StartDate            time.Time `gorm:"not null"`
	EndDate              time.Time `gorm:"not null"`

	RegistrationLimit int `gorm:"not null;default:1"`
	RegistrationFee   int `gorm:"not null;default:0"`
	TeamBased         bool
	MaxTeamSize       int `gorm:"not null;default:1"`

	CustomForm datatypes.JSON
	FormLocked bool

	Items []MerchandiseItem `gorm:"foreignKey:EventID"`

	Status string `gorm:"not null;default:DRAFT;index:idx_events_organizer_status"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type MerchandiseItem struct {
	ID      uint   `gorm:"primaryKey"`
	EventID uint   `gorm:"not null;uniqueIndex:uni_items_event_sku"`
	SKU     string `gorm:"not null;uniqueIndex:uni_items_event_sku"`
	Name    string `gorm:"not null"`
	Size    string
	Color   string
	Variant string
	Price   int `gorm:"not null;default:0"`
	Stock   int `gorm:"not null;default:0;check:stock >= 0"`

	PurchaseLimit int `gorm:"not null;default:1"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).Preload("Items").First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByIDForOrganizer(ctx context.Context, id, organizerID uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND organizer_id = ?", id, organizerID).
		First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// EventFilter narrows List. Zero values mean "no constraint".
type EventFilter struct {
	Statuses    []string
	Type        string
	OrganizerID uint
	OrganizerIn []uint
	From        time.Time
	To          time.Time
}

func (d *EventDAO) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := d.db.WithContext(ctx).Preload("Items")

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.OrganizerID != 0 {
		query = query.Where("organizer_id = ?", filter.OrganizerID)
	}
	if len(filter.OrganizerIn) > 0 {
		query = query.Where("organizer_id IN ?", filter.OrganizerIn)
	}
	if !filter.From.IsZero() {
		query = query.Where("start_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("start_date <= ?", filter.To)
	}

	var events []Event
	if err := query.Order("start_date asc").Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

func (d *EventDAO) ListByOrganizer(ctx context.Context, organizerID uint) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).
		Preload("Items").
		Where("organizer_id = ?", organizerID).
		Order("created_at desc").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// Update saves event columns plus the given merchandise items, replacing the
// item rows wholesale. Only DRAFT events may replace items, which the service
// layer guarantees before calling.
func (d *EventDAO) Update(ctx context.Context, event Event, items []MerchandiseItem) (Event, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Item rows are replaced explicitly below, never through the
		// association save.
		if err := tx.Omit("Items").Save(&event).Error; err != nil {
			return err
		}
		if items == nil {
			return nil
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&MerchandiseItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].EventID = event.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) SetFormLocked(ctx context.Context, eventID uint) error {
	return d.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ? AND form_locked = false", eventID).
		Update("form_locked", true).Error
}

func (d *EventDAO) Delete(ctx context.Context, eventID uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&MerchandiseItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Event{}, eventID).Error
	})
}

func (d *EventDAO) FindItem(ctx context.Context, eventID uint, sku string) (MerchandiseItem, error) {
	var item MerchandiseItem

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND sku = ?", eventID, sku).
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return MerchandiseItem{}, ErrItemNotFound
		}

		return MerchandiseItem{}, result.Error
	}

	return item, nil
}

// lockEventRow takes the event row lock that serializes capacity and stock
// decisions for one event inside a transaction.
func lockEventRow(tx *gorm.DB, eventID uint) error {
	var event Event

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&event, eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}

		return result.Error
	}

	return nil
}
