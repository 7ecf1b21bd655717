package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/pkg/ticketgen"
	"github.com/felicity-connect/backend/internal/repository"
)

var ErrDuplicateScan = domain.ErrDuplicateScan

type AttendanceRepository interface {
	Append(ctx context.Context, log domain.AttendanceLog) (domain.AttendanceLog, error)
	FindPresentLog(ctx context.Context, eventID, participantID uint) (domain.AttendanceLog, error)
	ListByEvent(ctx context.Context, eventID uint) ([]domain.AttendanceLog, error)
	ListPresentByEvent(ctx context.Context, eventID uint) ([]domain.AttendanceLog, error)
}

type AttendanceTicketRepository interface {
	FindByTicketIDAndEvent(ctx context.Context, ticketID string, eventID uint) (domain.Ticket, error)
	SetStatus(ctx context.Context, id uint, status domain.TicketStatus) error
}

type AttendanceEventRepository interface {
	FindByIDForOrganizer(ctx context.Context, id, organizerID uint) (domain.Event, error)
}

type AttendanceRegistrationRepository interface {
	ListByEvent(ctx context.Context, eventID uint, statuses []domain.RegistrationStatus) ([]domain.Registration, error)
}

type AttendanceOrderRepository interface {
	ListByEvent(ctx context.Context, eventID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error)
}

type AttendanceUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type AttendanceService struct {
	repo             AttendanceRepository
	ticketRepo       AttendanceTicketRepository
	eventRepo        AttendanceEventRepository
	registrationRepo AttendanceRegistrationRepository
	orderRepo        AttendanceOrderRepository
	userRepo         AttendanceUserRepository
}

func NewAttendanceService(
	repo AttendanceRepository,
	ticketRepo AttendanceTicketRepository,
	eventRepo AttendanceEventRepository,
	registrationRepo AttendanceRegistrationRepository,
	orderRepo AttendanceOrderRepository,
	userRepo AttendanceUserRepository,
) *AttendanceService {
	return &AttendanceService{
		repo:             repo,
		ticketRepo:       ticketRepo,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
	}
}

// DuplicateScanError carries the participant of the earlier scan so the
// door staff can see who already checked in.
type DuplicateScanError struct {
	Participant domain.User
	FirstSeen   time.Time
}

func (e *DuplicateScanError) Error() string {
	return domain.ErrDuplicateScan.Message
}

func (e *DuplicateScanError) Is(target error) bool {
	return errors.Is(domain.ErrDuplicateScan, target)
}

// Scan validates one QR payload at the door. Every attempt appends exactly
// one audit log, whatever the outcome: INVALID for unknown or malformed
// tickets, DUPLICATE when the participant is already in, SCANNED on
// success. A successful scan also flips the ticket to USED.
func (s *AttendanceService) Scan(ctx context.Context, eventID, organizerID uint, rawPayload string) (domain.ScanResult, error) {
	event, err := s.eventRepo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.ScanResult{}, domain.ErrEventNotFound
		}

		return domain.ScanResult{}, fmt.Errorf("s.eventRepo.FindByIDForOrganizer -> %w", err)
	}

	payload, err := ticketgen.Decode(rawPayload)
	if err != nil {
		return domain.ScanResult{}, s.logAndFail(ctx, event.ID, organizerID, rawPayload, nil, nil, "malformed QR payload")
	}

	ticket, err := s.ticketRepo.FindByTicketIDAndEvent(ctx, payload.TicketID, event.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return domain.ScanResult{}, s.logAndFail(ctx, event.ID, organizerID, rawPayload, nil, nil, "ticket does not belong to this event")
		}

		return domain.ScanResult{}, fmt.Errorf("s.ticketRepo.FindByTicketIDAndEvent -> %w", err)
	}

	if ticket.Status == domain.TicketCancelled {
		return domain.ScanResult{}, s.logAndFail(ctx, event.ID, organizerID, rawPayload, &ticket.ID, &ticket.ParticipantID, "ticket is cancelled")
	}

	if existing, err := s.repo.FindPresentLog(ctx, event.ID, ticket.ParticipantID); err == nil {
		_, _ = s.repo.Append(ctx, domain.AttendanceLog{
			EventID:       event.ID,
			TicketID:      &ticket.ID,
			ParticipantID: &ticket.ParticipantID,
			ScannedByID:   organizerID,
			Status:        domain.AttendanceDuplicate,
			Payload:       rawPayload,
		})

		participant, findErr := s.userRepo.FindByID(ctx, ticket.ParticipantID)
		if findErr != nil {
			participant = domain.User{ID: ticket.ParticipantID}
		}

		return domain.ScanResult{}, &DuplicateScanError{
			Participant: participant,
			FirstSeen:   existing.CreatedAt,
		}
	} else if !errors.Is(err, repository.ErrAttendanceLogNotFound) {
		return domain.ScanResult{}, fmt.Errorf("s.repo.FindPresentLog -> %w", err)
	}

	log, err := s.repo.Append(ctx, domain.AttendanceLog{
		EventID:       event.ID,
		TicketID:      &ticket.ID,
		ParticipantID: &ticket.ParticipantID,
		ScannedByID:   organizerID,
		Status:        domain.AttendanceScanned,
		Payload:       rawPayload,
	})
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("s.repo.Append -> %w", err)
	}

	if err := s.ticketRepo.SetStatus(ctx, ticket.ID, domain.TicketUsed); err != nil {
		return domain.ScanResult{}, fmt.Errorf("s.ticketRepo.SetStatus -> %w", err)
	}

	participant, err := s.userRepo.FindByID(ctx, ticket.ParticipantID)
	if err != nil {
		participant = domain.User{ID: ticket.ParticipantID}
	}

	return domain.ScanResult{
		Participant: participant,
		TicketID:    ticket.TicketID,
		Timestamp:   log.CreatedAt,
	}, nil
}

func (s *AttendanceService) logAndFail(ctx context.Context, eventID, organizerID uint, payload string, ticketID, participantID *uint, note string) error {
	_, _ = s.repo.Append(ctx, domain.AttendanceLog{
		EventID:       eventID,
		TicketID:      ticketID,
		ParticipantID: participantID,
		ScannedByID:   organizerID,
		Status:        domain.AttendanceInvalid,
		Payload:       payload,
		Note:          note,
	})

	return domain.ValidationFailed("invalid ticket", note)
}

// OverrideInput identifies the participant by ticket id or email; at least
// one must be set.
type OverrideInput struct {
	TicketID         string
	ParticipantEmail string
	Note             string
}

// ManualOverride marks a participant present without a QR code, resolving
// them through their ticket or their email. It skips the duplicate check on
// purpose; staff use it to correct the record, and the audit trail keeps
// every row.
func (s *AttendanceService) ManualOverride(ctx context.Context, eventID, organizerID uint, input OverrideInput) (domain.AttendanceLog, error) {
	event, err := s.eventRepo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.AttendanceLog{}, domain.ErrEventNotFound
		}

		return domain.AttendanceLog{}, fmt.Errorf("s.eventRepo.FindByIDForOrganizer -> %w", err)
	}

	if input.TicketID == "" && input.ParticipantEmail == "" {
		return domain.AttendanceLog{}, domain.ValidationFailed(
			"cannot resolve participant", "either a ticket id or a participant email is required")
	}

	participantID, ticketRef, err := s.resolveOverrideTarget(ctx, event.ID, input)
	if err != nil {
		return domain.AttendanceLog{}, err
	}

	log, err := s.repo.Append(ctx, domain.AttendanceLog{
		EventID:       event.ID,
		TicketID:      ticketRef,
		ParticipantID: &participantID,
		ScannedByID:   organizerID,
		Status:        domain.AttendanceManualOverride,
		Note:          input.Note,
	})
	if err != nil {
		return domain.AttendanceLog{}, fmt.Errorf("s.repo.Append -> %w", err)
	}

	return log, nil
}

// resolveOverrideTarget tries the ticket first, then the email. NotFound only
// when neither identifier resolves.
func (s *AttendanceService) resolveOverrideTarget(ctx context.Context, eventID uint, input OverrideInput) (uint, *uint, error) {
	if input.TicketID != "" {
		ticket, err := s.ticketRepo.FindByTicketIDAndEvent(ctx, input.TicketID, eventID)
		if err == nil {
			return ticket.ParticipantID, &ticket.ID, nil
		}
		if !errors.Is(err, repository.ErrTicketNotFound) {
			return 0, nil, fmt.Errorf("s.ticketRepo.FindByTicketIDAndEvent -> %w", err)
		}
	}

	if input.ParticipantEmail != "" {
		user, err := s.userRepo.FindByEmail(ctx, input.ParticipantEmail)
		if err == nil {
			return user.ID, nil, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return 0, nil, fmt.Errorf("s.userRepo.FindByEmail -> %w", err)
		}
	}

	return 0, nil, domain.NotFound("no participant matches the given ticket or email")
}

// eligiblePool is the union of active registrations and approved orders,
// deduplicated per participant.
func (s *AttendanceService) eligiblePool(ctx context.Context, eventID uint) (map[uint]struct{}, error) {
	pool := make(map[uint]struct{})

	registrations, err := s.registrationRepo.ListByEvent(ctx, eventID, domain.ActiveRegistrationStatuses)
	if err != nil {
		return nil, fmt.Errorf("s.registrationRepo.ListByEvent -> %w", err)
	}
	for _, reg := range registrations {
		pool[reg.ParticipantID] = struct{}{}
	}

	orders, err := s.orderRepo.ListByEvent(ctx, eventID, domain.OrderApproved)
	if err != nil {
		return nil, fmt.Errorf("s.orderRepo.ListByEvent -> %w", err)
	}
	for _, order := range orders {
		pool[order.ParticipantID] = struct{}{}
	}

	return pool, nil
}

// Dashboard splits the eligible pool into scanned and not-scanned and
// attaches the latest logs.
func (s *AttendanceService) Dashboard(ctx context.Context, eventID, organizerID uint) (domain.AttendanceDashboard, error) {
	event, err := s.eventRepo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.AttendanceDashboard{}, domain.ErrEventNotFound
		}

		return domain.AttendanceDashboard{}, fmt.Errorf("s.eventRepo.FindByIDForOrganizer -> %w", err)
	}

	pool, err := s.eligiblePool(ctx, event.ID)
	if err != nil {
		return domain.AttendanceDashboard{}, err
	}

	present, err := s.presentSet(ctx, event.ID)
	if err != nil {
		return domain.AttendanceDashboard{}, err
	}

	members, err := s.poolMembers(ctx, pool)
	if err != nil {
		return domain.AttendanceDashboard{}, err
	}

	dashboard := domain.AttendanceDashboard{
		EventID:   event.ID,
		EventName: event.Name,
	}
	for _, member := range members {
		if _, ok := present[member.ID]; ok {
			dashboard.Scanned = append(dashboard.Scanned, member)
		} else {
			dashboard.NotScanned = append(dashboard.NotScanned, member)
		}
	}

	dashboard.Summary = domain.AttendanceSummary{
		TotalParticipants: len(members),
		Scanned:           len(dashboard.Scanned),
		NotScanned:        len(dashboard.NotScanned),
	}

	logs, err := s.repo.ListByEvent(ctx, event.ID)
	if err != nil {
		return domain.AttendanceDashboard{}, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}
	if len(logs) > 20 {
		logs = logs[:20]
	}
	dashboard.RecentLogs = logs

	return dashboard, nil
}

// ExportRows returns one row per pool member with their most recent
// qualifying log for the CSV export.
func (s *AttendanceService) ExportRows(ctx context.Context, eventID, organizerID uint) ([]domain.AttendanceExportRow, error) {
	event, err := s.eventRepo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, domain.ErrEventNotFound
		}

		return nil, fmt.Errorf("s.eventRepo.FindByIDForOrganizer -> %w", err)
	}

	pool, err := s.eligiblePool(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	members, err := s.poolMembers(ctx, pool)
	if err != nil {
		return nil, err
	}

	presentLogs, err := s.repo.ListPresentByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListPresentByEvent -> %w", err)
	}

	// Ascending list, so the last write per participant wins.
	latest := make(map[uint]domain.AttendanceLog)
	for _, log := range presentLogs {
		if log.ParticipantID != nil {
			latest[*log.ParticipantID] = log
		}
	}

	rows := make([]domain.AttendanceExportRow, 0, len(members))
	for _, member := range members {
		row := domain.AttendanceExportRow{
			Name:  member.Name,
			Email: member.Email,
		}
		if log, ok := latest[member.ID]; ok {
			ts := log.CreatedAt
			row.Present = true
			row.Timestamp = &ts
			row.Method = log.Status
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *AttendanceService) presentSet(ctx context.Context, eventID uint) (map[uint]struct{}, error) {
	logs, err := s.repo.ListPresentByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListPresentByEvent -> %w", err)
	}

	present := make(map[uint]struct{}, len(logs))
	for _, log := range logs {
		if log.ParticipantID != nil {
			present[*log.ParticipantID] = struct{}{}
		}
	}

	return present, nil
}

func (s *AttendanceService) poolMembers(ctx context.Context, pool map[uint]struct{}) ([]domain.PoolMember, error) {
	ids := make([]uint, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindByIDs -> %w", err)
	}

	members := make([]domain.PoolMember, 0, len(users))
	for _, user := range users {
		members = append(members, domain.PoolMember{
			ID:    user.ID,
			Name:  user.DisplayName(),
			Email: user.Email,
		})
	}

	return members, nil
}
