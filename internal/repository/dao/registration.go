package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("registration already exists for this participant")
	ErrCapacityExhausted     = errors.New("registration limit reached")
)

type Registration struct {
	ID            uint `gorm:"primaryKey"`
	EventID       uint `gorm:"not null;uniqueIndex:uni_registrations_event_participant"`
	ParticipantID uint `gorm:"not null;uniqueIndex:uni_registrations_event_participant;index:idx_registrations_participant_status"`

	Status   string `gorm:"not null;default:REGISTERED;index:idx_registrations_participant_status"`
	TeamName string

	Responses datatypes.JSON

	TicketID *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// InsertGuarded creates the registration inside one transaction that locks
// the event row, re-counts occupied spots and relies on the
// (event, participant) unique index as the final authority on duplicates.
// The pre-checks in the service exist for friendly errors; this is the
// guard that holds under concurrent load.
func (d *RegistrationDAO) InsertGuarded(ctx context.Context, registration Registration, registrationLimit int) (Registration, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEventRow(tx, registration.EventID); err != nil {
			return err
		}

		occupied, err := occupiedSpots(tx, registration.EventID)
		if err != nil {
			return err
		}
		if occupied >= registrationLimit {
			return ErrCapacityExhausted
		}

		if err := tx.Create(&registration).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) &&
				pgErr.Code == pgerrcode.UniqueViolation &&
				strings.Contains(pgErr.ConstraintName, "uni_registrations_event_participant") {
				return ErrDuplicateRegistration
			}
			return err
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return registration, nil
}

func (d *RegistrationDAO) SetTicket(ctx context.Context, registrationID, ticketID uint) error {
	return d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ?", registrationID).
		Update("ticket_id", ticketID).Error
}

func (d *RegistrationDAO) FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (Registration, error) {
	var registration Registration

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND participant_id = ?", eventID, participantID).
		First(&registration)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return registration, nil
}

func (d *RegistrationDAO) ListByEvent(ctx context.Context, eventID uint, statuses []string) ([]Registration, error) {
	query := d.db.WithContext(ctx).Where("event_id = ?", eventID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var registrations []Registration
	if err := query.Order("created_at desc").Find(&registrations).Error; err != nil {
		return nil, err
	}

	return registrations, nil
}

func (d *RegistrationDAO) ListByParticipant(ctx context.Context, participantID uint) ([]Registration, error) {
	var registrations []Registration

	result := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at desc").
		Find(&registrations)
	if result.Error != nil {
		return nil, result.Error
	}

	return registrations, nil
}

func (d *RegistrationDAO) CountActiveByEvent(ctx context.Context, eventID uint) (int, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND status IN ?", eventID, []string{"REGISTERED", "COMPLETED"}).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(count), nil
}

// TeamRow is one case-insensitive team grouping of an event's active
// registrations.
type TeamRow struct {
	TeamKey     string
	TeamName    string
	MemberCount int
}

func (d *RegistrationDAO) GroupTeams(ctx context.Context, eventID uint) ([]TeamRow, error) {
	var rows []TeamRow

	result := d.db.WithContext(ctx).
		Model(&Registration{}).
		Select("lower(team_name) AS team_key, max(team_name) AS team_name, count(*) AS member_count").
		Where("event_id = ? AND status IN ? AND team_name <> ''", eventID, []string{"REGISTERED", "COMPLETED"}).
		Group("lower(team_name)").
		Order("team_key asc").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// occupiedSpots runs inside a caller-owned transaction so admission
// decisions always see a fresh count.
func occupiedSpots(tx *gorm.DB, eventID uint) (int, error) {
	var registrations int64
	err := tx.Model(&Registration{}).
		Where("event_id = ? AND status IN ?", eventID, []string{"REGISTERED", "COMPLETED"}).
		Count(&registrations).Error
	if err != nil {
		return 0, err
	}

	var approvedQty int64
	err = tx.Model(&MerchandiseOrder{}).
		Select("coalesce(sum(quantity), 0)").
		Where("event_id = ? AND status = ?", eventID, "APPROVED").
		Scan(&approvedQty).Error
	if err != nil {
		return 0, err
	}

	return int(registrations) + int(approvedQty), nil
}
