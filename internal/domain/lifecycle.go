package domain

import (
	"fmt"
	"sort"
	"time"
)

// statusTransitions is the full event lifecycle:
// DRAFT -> PUBLISHED -> {ONGOING, CLOSED} -> COMPLETED, with self-loops for
// in-place edits. Everything past PUBLISHED only moves forward.
var statusTransitions = map[EventStatus]map[EventStatus]bool{
	StatusDraft:     {StatusDraft: true, StatusPublished: true},
	StatusPublished: {StatusPublished: true, StatusOngoing: true, StatusClosed: true},
	StatusOngoing:   {StatusOngoing: true, StatusClosed: true, StatusCompleted: true},
	StatusClosed:    {StatusClosed: true, StatusCompleted: true},
	StatusCompleted: {StatusCompleted: true},
}

// editableFields lists which event fields may change while the event sits in
// a given status. DRAFT is fully editable; PUBLISHED allows a narrow set
// (with extend-only/increase-only rules enforced by the service); later
// states allow status moves only.
var editableFields = map[EventStatus]map[string]bool{
	StatusDraft: nil, // nil means everything
	StatusPublished: {
		"description":           true,
		"registration_deadline": true,
		"registration_limit":    true,
	},
	StatusOngoing:   {},
	StatusClosed:    {},
	StatusCompleted: {},
}

func (s EventStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CheckTransition returns a StateViolation when from -> to is not part of
// the lifecycle.
func CheckTransition(from, to EventStatus) error {
	if !from.Valid() {
		return StateViolation("unknown event status %q", from)
	}
	if !to.Valid() {
		return StateViolation("unknown event status %q", to)
	}
	if !statusTransitions[from][to] {
		return StateViolation("event cannot move from %s to %s", from, to)
	}

	return nil
}

// BlockedEditFields returns every changed field that the current status
// forbids, sorted for stable error messages. Empty means the edit is allowed.
func BlockedEditFields(status EventStatus, changed []string) []string {
	allowed := editableFields[status]
	if status == StatusDraft {
		return nil
	}

	var blocked []string
	for _, field := range changed {
		if field == "status" {
			continue
		}
		if !allowed[field] {
			blocked = append(blocked, field)
		}
	}
	sort.Strings(blocked)

	return blocked
}

// ValidateTimeline enforces deadline < start < end. It runs on every event
// save regardless of which fields changed.
func ValidateTimeline(deadline, start, end time.Time) []string {
	var violations []string

	if deadline.IsZero() || start.IsZero() || end.IsZero() {
		violations = append(violations, "registration deadline, start date and end date are all required")
		return violations
	}
	if !deadline.Before(start) {
		violations = append(violations, "registration deadline must be earlier than event start time")
	}
	if !start.Before(end) {
		violations = append(violations, "event start time must be earlier than event end time")
	}

	return violations
}

// MissingForPublish lists everything still missing before the event can be
// published. All missing items are reported together.
func (e *Event) MissingForPublish() []string {
	var missing []string

	if e.Name == "" {
		missing = append(missing, "name")
	}
	if e.Description == "" {
		missing = append(missing, "description")
	}
	if e.Type == "" {
		missing = append(missing, "type")
	}
	if e.RegistrationDeadline.IsZero() {
		missing = append(missing, "registration_deadline")
	}
	if e.StartDate.IsZero() {
		missing = append(missing, "start_date")
	}
	if e.EndDate.IsZero() {
		missing = append(missing, "end_date")
	}
	if e.RegistrationLimit < 1 {
		missing = append(missing, "registration_limit")
	}
	if e.OrganizerID == 0 {
		missing = append(missing, "organizer")
	}

	if e.Type == EventNormal && len(e.CustomForm) == 0 {
		missing = append(missing, "custom_form (at least one field for NORMAL event)")
	}
	if e.Type == EventMerchandise && len(e.Merchandise) == 0 {
		missing = append(missing, "merchandise.items")
	}
	if e.Type == EventNormal && e.TeamBased && e.MaxTeamSize < 2 {
		missing = append(missing, "max_team_size (at least 2 for team-based events)")
	}

	return missing
}

// ValidateTeamConfiguration checks the team settings of a NORMAL event.
func (e *Event) ValidateTeamConfiguration() []string {
	if e.Type != EventNormal || !e.TeamBased {
		return nil
	}
	if e.MaxTeamSize < 2 {
		return []string{"for team-based events, max team size must be at least 2"}
	}

	return nil
}

// ValidateCustomFormDefinition checks the form schema of a NORMAL event.
func (e *Event) ValidateCustomFormDefinition() []string {
	if e.Type != EventNormal {
		return nil
	}

	var violations []string
	seen := make(map[string]bool, len(e.CustomForm))

	for _, field := range e.CustomForm {
		if field.FieldID == "" {
			violations = append(violations, "each custom form field must have a fieldId")
			continue
		}
		if seen[field.FieldID] {
			violations = append(violations, fmt.Sprintf("duplicate custom form fieldId: %s", field.FieldID))
		}
		seen[field.FieldID] = true

		if field.Label == "" {
			violations = append(violations, fmt.Sprintf("custom form field %s must have a label", field.FieldID))
		}
		if !field.Type.Valid() {
			violations = append(violations, fmt.Sprintf("unsupported custom form field type: %s", field.Type))
		}
		// Checkboxes without options are boolean, so only dropdowns need them.
		if field.Type == FieldDropdown && field.Required && len(field.Options) == 0 {
			violations = append(violations, fmt.Sprintf("required %s field %q must include at least one option", field.Type, field.Label))
		}
	}

	return violations
}
