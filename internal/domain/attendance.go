package domain

import "time"

type AttendanceStatus string

const (
	AttendanceScanned        AttendanceStatus = "SCANNED"
	AttendanceDuplicate      AttendanceStatus = "DUPLICATE"
	AttendanceInvalid        AttendanceStatus = "INVALID"
	AttendanceManualOverride AttendanceStatus = "MANUAL_OVERRIDE"
)

// PresentStatuses are the log statuses that mark a participant as checked in.
var PresentStatuses = []AttendanceStatus{AttendanceScanned, AttendanceManualOverride}

// AttendanceLog is one append-only audit row per scan or override attempt,
// including the failed ones. Rows are never mutated.
type AttendanceLog struct {
	ID            uint             `json:"id"`
	EventID       uint             `json:"event_id"`
	TicketID      *uint            `json:"ticket_id,omitempty"`
	ParticipantID *uint            `json:"participant_id,omitempty"`
	ScannedByID   uint             `json:"scanned_by_id"`
	Status        AttendanceStatus `json:"status"`
	Payload       string           `json:"payload,omitempty"`
	Note          string           `json:"note,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ScanResult is returned on a successful scan so the door UI can greet the
// participant.
type ScanResult struct {
	Participant User      `json:"participant"`
	TicketID    string    `json:"ticket_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// PoolMember is one entry of an event's eligible participant pool.
type PoolMember struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AttendanceSummary struct {
	TotalParticipants int `json:"total_participants"`
	Scanned           int `json:"scanned"`
	NotScanned        int `json:"not_scanned"`
}

type AttendanceDashboard struct {
	EventID    uint              `json:"event_id"`
	EventName  string            `json:"event_name"`
	Summary    AttendanceSummary `json:"summary"`
	Scanned    []PoolMember      `json:"scanned"`
	NotScanned []PoolMember      `json:"not_scanned"`
	RecentLogs []AttendanceLog   `json:"recent_logs"`
}

// AttendanceExportRow associates a pool member with their most recent
// qualifying log, if any.
type AttendanceExportRow struct {
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Present   bool             `json:"present"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Method    AttendanceStatus `json:"method,omitempty"`
}
