package repository

import (
	"context"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var ErrAttendanceLogNotFound = dao.ErrAttendanceLogNotFound

type AttendanceDAO interface {
	Insert(ctx context.Context, log dao.AttendanceLog) (dao.AttendanceLog, error)
	FindPresentLog(ctx context.Context, eventID, participantID uint) (dao.AttendanceLog, error)
	ListByEvent(ctx context.Context, eventID uint) ([]dao.AttendanceLog, error)
	ListPresentByEvent(ctx context.Context, eventID uint) ([]dao.AttendanceLog, error)
}

type AttendanceRepository struct {
	dao AttendanceDAO
}

func NewAttendanceRepository(dao AttendanceDAO) *AttendanceRepository {
	return &AttendanceRepository{
		dao: dao,
	}
}

// Append records one log row; every scan attempt gets one, including the
// failed ones.
func (r *AttendanceRepository) Append(ctx context.Context, log domain.AttendanceLog) (domain.AttendanceLog, error) {
	created, err := r.dao.Insert(ctx, attendanceDomainToDao(log))
	if err != nil {
		return domain.AttendanceLog{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return attendanceDaoToDomain(created), nil
}

func (r *AttendanceRepository) FindPresentLog(ctx context.Context, eventID, participantID uint) (domain.AttendanceLog, error) {
	found, err := r.dao.FindPresentLog(ctx, eventID, participantID)
	if err != nil {
		return domain.AttendanceLog{}, fmt.Errorf("r.dao.FindPresentLog -> %w", err)
	}

	return attendanceDaoToDomain(found), nil
}

func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID uint) ([]domain.AttendanceLog, error) {
	found, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	logs := make([]domain.AttendanceLog, 0, len(found))
	for _, log := range found {
		logs = append(logs, attendanceDaoToDomain(log))
	}

	return logs, nil
}

func (r *AttendanceRepository) ListPresentByEvent(ctx context.Context, eventID uint) ([]domain.AttendanceLog, error) {
	found, err := r.dao.ListPresentByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListPresentByEvent -> %w", err)
	}

	logs := make([]domain.AttendanceLog, 0, len(found))
	for _, log := range found {
		logs = append(logs, attendanceDaoToDomain(log))
	}

	return logs, nil
}

func attendanceDomainToDao(l domain.AttendanceLog) dao.AttendanceLog {
	return dao.AttendanceLog{
		ID:            l.ID,
		EventID:       l.EventID,
		TicketID:      l.TicketID,
		ParticipantID: l.ParticipantID,
		ScannedByID:   l.ScannedByID,
		Status:        string(l.Status),
		Payload:       l.Payload,
		Note:          l.Note,
		CreatedAt:     l.CreatedAt,
	}
}

func attendanceDaoToDomain(l dao.AttendanceLog) domain.AttendanceLog {
	return domain.AttendanceLog{
		ID:            l.ID,
		EventID:       l.EventID,
		TicketID:      l.TicketID,
		ParticipantID: l.ParticipantID,
		ScannedByID:   l.ScannedByID,
		Status:        domain.AttendanceStatus(l.Status),
		Payload:       l.Payload,
		Note:          l.Note,
		CreatedAt:     l.CreatedAt,
	}
}
