package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrTicketNotFound = errors.New("ticket not found")

type Ticket struct {
	ID             uint   `gorm:"primaryKey"`
	TicketID       string `gorm:"uniqueIndex;not null"`
	EventID        uint   `gorm:"not null;index"`
	ParticipantID  uint   `gorm:"not null;index"`
	RegistrationID *uint
	OrderID        *uint
	QRPayload      string `gorm:"type:text"`
	QRData         string `gorm:"type:text"`
	Status         string `gorm:"not null;default:ACTIVE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

func (d *TicketDAO) Insert(ctx context.Context, ticket Ticket) (Ticket, error) {
	result := d.db.WithContext(ctx).Create(&ticket)
	if result.Error != nil {
		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByID(ctx context.Context, id uint) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).First(&ticket, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByTicketID(ctx context.Context, ticketID string) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).Where("ticket_id = ?", ticketID).First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByTicketIDAndEvent(ctx context.Context, ticketID string, eventID uint) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).
		Where("ticket_id = ? AND event_id = ?", ticketID, eventID).
		First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := d.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func (d *TicketDAO) ListByParticipant(ctx context.Context, participantID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at desc").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}
