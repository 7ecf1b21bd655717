package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrAttendanceLogNotFound = errors.New("attendance log not found")

type AttendanceLog struct {
	ID            uint `gorm:"primaryKey"`
	EventID       uint `gorm:"not null;index:idx_attendance_event_status"`
	TicketID      *uint
	ParticipantID *uint
	ScannedByID   uint
	Status        string `gorm:"not null;index:idx_attendance_event_status"`
	Payload       string `gorm:"type:text"`
	Note          string
	CreatedAt     time.Time
}

type AttendanceDAO struct {
	db *gorm.DB
}

func NewAttendanceDAO(db *gorm.DB) *AttendanceDAO {
	return &AttendanceDAO{
		db: db,
	}
}

func (d *AttendanceDAO) Insert(ctx context.Context, log AttendanceLog) (AttendanceLog, error) {
	result := d.db.WithContext(ctx).Create(&log)
	if result.Error != nil {
		return AttendanceLog{}, result.Error
	}

	return log, nil
}

// FindPresentLog returns the most recent log that marks the participant as
// present at the event, either via a scan or a manual override.
func (d *AttendanceDAO) FindPresentLog(ctx context.Context, eventID, participantID uint) (AttendanceLog, error) {
	var log AttendanceLog

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND participant_id = ? AND status IN ?",
			eventID, participantID, []string{"SCANNED", "MANUAL_OVERRIDE"}).
		Order("created_at desc").
		First(&log)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return AttendanceLog{}, ErrAttendanceLogNotFound
		}

		return AttendanceLog{}, result.Error
	}

	return log, nil
}

func (d *AttendanceDAO) ListByEvent(ctx context.Context, eventID uint) ([]AttendanceLog, error) {
	var logs []AttendanceLog

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at desc").
		Find(&logs)
	if result.Error != nil {
		return nil, result.Error
	}

	return logs, nil
}

func (d *AttendanceDAO) ListPresentByEvent(ctx context.Context, eventID uint) ([]AttendanceLog, error) {
	var logs []AttendanceLog

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND status IN ?", eventID, []string{"SCANNED", "MANUAL_OVERRIDE"}).
		Order("created_at asc").
		Find(&logs)
	if result.Error != nil {
		return nil, result.Error
	}

	return logs, nil
}
