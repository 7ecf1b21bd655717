package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/pkg/ticketgen"
	"github.com/felicity-connect/backend/internal/repository"
)

type fakeAttendanceRepo struct {
	logs   []domain.AttendanceLog
	nextID uint
}

func (f *fakeAttendanceRepo) Append(_ context.Context, log domain.AttendanceLog) (domain.AttendanceLog, error) {
	f.nextID++
	log.ID = f.nextID
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	f.logs = append(f.logs, log)

	return log, nil
}

func (f *fakeAttendanceRepo) FindPresentLog(_ context.Context, eventID, participantID uint) (domain.AttendanceLog, error) {
	for i := len(f.logs) - 1; i >= 0; i-- {
		log := f.logs[i]
		if log.EventID != eventID || log.ParticipantID == nil || *log.ParticipantID != participantID {
			continue
		}
		if log.Status == domain.AttendanceScanned || log.Status == domain.AttendanceManualOverride {
			return log, nil
		}
	}

	return domain.AttendanceLog{}, repository.ErrAttendanceLogNotFound
}

func (f *fakeAttendanceRepo) ListByEvent(_ context.Context, eventID uint) ([]domain.AttendanceLog, error) {
	var out []domain.AttendanceLog
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].EventID == eventID {
			out = append(out, f.logs[i])
		}
	}

	return out, nil
}

func (f *fakeAttendanceRepo) ListPresentByEvent(_ context.Context, eventID uint) ([]domain.AttendanceLog, error) {
	var out []domain.AttendanceLog
	for _, log := range f.logs {
		if log.EventID != eventID {
			continue
		}
		if log.Status == domain.AttendanceScanned || log.Status == domain.AttendanceManualOverride {
			out = append(out, log)
		}
	}

	return out, nil
}

type fakeScanTicketRepo struct {
	tickets  map[string]domain.Ticket
	statuses map[uint]domain.TicketStatus
}

func newFakeScanTicketRepo(tickets ...domain.Ticket) *fakeScanTicketRepo {
	f := &fakeScanTicketRepo{
		tickets:  make(map[string]domain.Ticket),
		statuses: make(map[uint]domain.TicketStatus),
	}
	for _, ticket := range tickets {
		f.tickets[ticket.TicketID] = ticket
	}

	return f
}

func (f *fakeScanTicketRepo) FindByTicketIDAndEvent(_ context.Context, ticketID string, eventID uint) (domain.Ticket, error) {
	ticket, ok := f.tickets[ticketID]
	if !ok || ticket.EventID != eventID {
		return domain.Ticket{}, repository.ErrTicketNotFound
	}

	return ticket, nil
}

func (f *fakeScanTicketRepo) SetStatus(_ context.Context, id uint, status domain.TicketStatus) error {
	f.statuses[id] = status
	return nil
}

type fakeOrganizerEventRepo struct {
	events map[uint]domain.Event
}

func (f *fakeOrganizerEventRepo) FindByIDForOrganizer(_ context.Context, id, organizerID uint) (domain.Event, error) {
	event, ok := f.events[id]
	if !ok || event.OrganizerID != organizerID {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return event, nil
}

type fakePoolRegistrationRepo struct {
	registrations []domain.Registration
}

func (f *fakePoolRegistrationRepo) ListByEvent(_ context.Context, eventID uint, _ []domain.RegistrationStatus) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}

	return out, nil
}

type fakePoolOrderRepo struct {
	orders []domain.MerchandiseOrder
}

func (f *fakePoolOrderRepo) ListByEvent(_ context.Context, eventID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error) {
	var out []domain.MerchandiseOrder
	for _, order := range f.orders {
		if order.EventID == eventID && order.Status == status {
			out = append(out, order)
		}
	}

	return out, nil
}

type fakeScanUserRepo struct {
	users map[uint]domain.User
}

func (f *fakeScanUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

func (f *fakeScanUserRepo) FindByIDs(_ context.Context, ids []uint) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}

	return out, nil
}

func (f *fakeScanUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}

	return domain.User{}, repository.ErrUserNotFound
}

type attendanceFixture struct {
	svc     *AttendanceService
	repo    *fakeAttendanceRepo
	tickets *fakeScanTicketRepo
}

func newAttendanceFixture(tickets *fakeScanTicketRepo, registrations []domain.Registration, orders []domain.MerchandiseOrder) attendanceFixture {
	repo := &fakeAttendanceRepo{}
	eventRepo := &fakeOrganizerEventRepo{events: map[uint]domain.Event{
		1: {ID: 1, OrganizerID: 100, Name: "Hackathon"},
	}}
	users := &fakeScanUserRepo{users: map[uint]domain.User{
		1: {ID: 1, Email: "asha@example.com", FirstName: "Asha", LastName: "Rao"},
		2: {ID: 2, Email: "vik@example.com", FirstName: "Vik"},
	}}

	svc := NewAttendanceService(
		repo,
		tickets,
		eventRepo,
		&fakePoolRegistrationRepo{registrations: registrations},
		&fakePoolOrderRepo{orders: orders},
		users,
	)

	return attendanceFixture{svc: svc, repo: repo, tickets: tickets}
}

func scanPayload(t *testing.T, ticketID string, eventID, participantID uint) string {
	t.Helper()

	payload, err := ticketgen.Encode(ticketgen.Payload{
		TicketID:      ticketID,
		EventID:       eventID,
		ParticipantID: participantID,
		IssuedAt:      time.Now().Unix(),
	})
	require.NoError(t, err)

	return payload
}

func TestAttendanceService_Scan(t *testing.T) {
	ticket := domain.Ticket{ID: 10, TicketID: "FEL-AB12CD34EF", EventID: 1, ParticipantID: 1, Status: domain.TicketActive}

	t.Run("first scan marks the ticket used", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)

		result, err := fx.svc.Scan(context.Background(), 1, 100, scanPayload(t, ticket.TicketID, 1, 1))
		require.NoError(t, err)

		assert.Equal(t, "FEL-AB12CD34EF", result.TicketID)
		assert.Equal(t, uint(1), result.Participant.ID)
		assert.Equal(t, domain.TicketUsed, fx.tickets.statuses[10])

		require.Len(t, fx.repo.logs, 1)
		assert.Equal(t, domain.AttendanceScanned, fx.repo.logs[0].Status)
	})

	t.Run("second scan is a duplicate with the first timestamp", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)
		payload := scanPayload(t, ticket.TicketID, 1, 1)

		_, err := fx.svc.Scan(context.Background(), 1, 100, payload)
		require.NoError(t, err)
		firstSeen := fx.repo.logs[0].CreatedAt

		_, err = fx.svc.Scan(context.Background(), 1, 100, payload)
		require.Error(t, err)

		var dup *DuplicateScanError
		require.ErrorAs(t, err, &dup)
		assert.ErrorIs(t, err, domain.ErrDuplicateScan)
		assert.Equal(t, uint(1), dup.Participant.ID)
		assert.Equal(t, firstSeen, dup.FirstSeen)

		// The duplicate attempt is still audited.
		require.Len(t, fx.repo.logs, 2)
		assert.Equal(t, domain.AttendanceDuplicate, fx.repo.logs[1].Status)
	})

	t.Run("malformed payload is logged as invalid", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)

		_, err := fx.svc.Scan(context.Background(), 1, 100, "not-a-payload")

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindValidationFailed, kind)

		require.Len(t, fx.repo.logs, 1)
		assert.Equal(t, domain.AttendanceInvalid, fx.repo.logs[0].Status)
		assert.Equal(t, "malformed QR payload", fx.repo.logs[0].Note)
	})

	t.Run("ticket from another event is invalid", func(t *testing.T) {
		other := ticket
		other.EventID = 2
		fx := newAttendanceFixture(newFakeScanTicketRepo(other), nil, nil)

		_, err := fx.svc.Scan(context.Background(), 1, 100, scanPayload(t, ticket.TicketID, 2, 1))
		require.Error(t, err)

		require.Len(t, fx.repo.logs, 1)
		assert.Equal(t, "ticket does not belong to this event", fx.repo.logs[0].Note)
	})

	t.Run("cancelled ticket is invalid", func(t *testing.T) {
		cancelled := ticket
		cancelled.Status = domain.TicketCancelled
		fx := newAttendanceFixture(newFakeScanTicketRepo(cancelled), nil, nil)

		_, err := fx.svc.Scan(context.Background(), 1, 100, scanPayload(t, ticket.TicketID, 1, 1))
		require.Error(t, err)

		require.Len(t, fx.repo.logs, 1)
		assert.Equal(t, domain.AttendanceInvalid, fx.repo.logs[0].Status)
	})

	t.Run("another organizer's event is not found", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)

		_, err := fx.svc.Scan(context.Background(), 1, 999, scanPayload(t, ticket.TicketID, 1, 1))
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
		assert.Empty(t, fx.repo.logs)
	})
}

func TestAttendanceService_ManualOverride(t *testing.T) {
	ticket := domain.Ticket{ID: 10, TicketID: "FEL-AB12CD34EF", EventID: 1, ParticipantID: 1, Status: domain.TicketActive}

	t.Run("resolved via ticket id", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)

		log, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{
			TicketID: "FEL-AB12CD34EF",
			Note:     "forgot phone",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.AttendanceManualOverride, log.Status)
		assert.Equal(t, "forgot phone", log.Note)
		require.NotNil(t, log.ParticipantID)
		assert.Equal(t, uint(1), *log.ParticipantID)
		require.NotNil(t, log.TicketID)
		assert.Equal(t, uint(10), *log.TicketID)
	})

	t.Run("resolved via email", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(), nil, nil)

		log, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{
			ParticipantEmail: "vik@example.com",
		})
		require.NoError(t, err)

		require.NotNil(t, log.ParticipantID)
		assert.Equal(t, uint(2), *log.ParticipantID)
		assert.Nil(t, log.TicketID)
	})

	t.Run("unknown ticket falls back to email", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)

		log, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{
			TicketID:         "FEL-DOESNOTEXIST",
			ParticipantEmail: "asha@example.com",
		})
		require.NoError(t, err)

		require.NotNil(t, log.ParticipantID)
		assert.Equal(t, uint(1), *log.ParticipantID)
	})

	t.Run("neither identifier resolves", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(), nil, nil)

		_, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{
			TicketID:         "FEL-DOESNOTEXIST",
			ParticipantEmail: "nobody@example.com",
		})

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindNotFound, kind)
		assert.Empty(t, fx.repo.logs)
	})

	t.Run("no identifier at all", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(), nil, nil)

		_, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{Note: "who?"})

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindValidationFailed, kind)
	})

	t.Run("override after scan is allowed and appends a second row", func(t *testing.T) {
		fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), nil, nil)

		_, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{TicketID: ticket.TicketID, Note: "first"})
		require.NoError(t, err)
		_, err = fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{TicketID: ticket.TicketID, Note: "second"})
		require.NoError(t, err)

		assert.Len(t, fx.repo.logs, 2)
	})
}

func TestAttendanceService_Dashboard(t *testing.T) {
	registrations := []domain.Registration{
		{ID: 1, EventID: 1, ParticipantID: 1, Status: domain.RegistrationRegistered},
		{ID: 2, EventID: 1, ParticipantID: 2, Status: domain.RegistrationRegistered},
	}
	fx := newAttendanceFixture(newFakeScanTicketRepo(), registrations, nil)

	_, err := fx.svc.ManualOverride(context.Background(), 1, 100, OverrideInput{ParticipantEmail: "asha@example.com"})
	require.NoError(t, err)

	dashboard, err := fx.svc.Dashboard(context.Background(), 1, 100)
	require.NoError(t, err)

	assert.Equal(t, 2, dashboard.Summary.TotalParticipants)
	assert.Equal(t, 1, dashboard.Summary.Scanned)
	assert.Equal(t, 1, dashboard.Summary.NotScanned)

	require.Len(t, dashboard.Scanned, 1)
	assert.Equal(t, uint(1), dashboard.Scanned[0].ID)
	assert.Equal(t, "Asha Rao", dashboard.Scanned[0].Name)

	require.Len(t, dashboard.NotScanned, 1)
	assert.Equal(t, uint(2), dashboard.NotScanned[0].ID)

	require.Len(t, dashboard.RecentLogs, 1)
}

func TestAttendanceService_ExportRows(t *testing.T) {
	ticket := domain.Ticket{ID: 10, TicketID: "FEL-AB12CD34EF", EventID: 1, ParticipantID: 1, Status: domain.TicketActive}
	registrations := []domain.Registration{
		{ID: 1, EventID: 1, ParticipantID: 1, Status: domain.RegistrationRegistered},
		{ID: 2, EventID: 1, ParticipantID: 2, Status: domain.RegistrationRegistered},
	}
	fx := newAttendanceFixture(newFakeScanTicketRepo(ticket), registrations, nil)

	_, err := fx.svc.Scan(context.Background(), 1, 100, scanPayload(t, ticket.TicketID, 1, 1))
	require.NoError(t, err)

	rows, err := fx.svc.ExportRows(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byEmail := make(map[string]domain.AttendanceExportRow, len(rows))
	for _, row := range rows {
		byEmail[row.Email] = row
	}

	present := byEmail["asha@example.com"]
	assert.True(t, present.Present)
	require.NotNil(t, present.Timestamp)
	assert.Equal(t, domain.AttendanceScanned, present.Method)

	absent := byEmail["vik@example.com"]
	assert.False(t, absent.Present)
	assert.Nil(t, absent.Timestamp)
}
