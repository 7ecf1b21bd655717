package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    EventStatus
		to      EventStatus
		wantErr bool
	}{
		{"draft to published", StatusDraft, StatusPublished, false},
		{"draft stays draft", StatusDraft, StatusDraft, false},
		{"published to ongoing", StatusPublished, StatusOngoing, false},
		{"published to closed", StatusPublished, StatusClosed, false},
		{"ongoing to completed", StatusOngoing, StatusCompleted, false},
		{"closed to completed", StatusClosed, StatusCompleted, false},
		{"published back to draft", StatusPublished, StatusDraft, true},
		{"draft skips to ongoing", StatusDraft, StatusOngoing, true},
		{"completed reopened", StatusCompleted, StatusPublished, true},
		{"closed back to ongoing", StatusClosed, StatusOngoing, true},
		{"unknown source", EventStatus("ARCHIVED"), StatusDraft, true},
		{"unknown target", StatusDraft, EventStatus("ARCHIVED"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)

				kind, ok := KindOf(err)
				require.True(t, ok)
				assert.Equal(t, KindStateViolation, kind)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlockedEditFields(t *testing.T) {
	changed := []string{"name", "description", "registration_deadline", "team_based", "status"}

	assert.Empty(t, BlockedEditFields(StatusDraft, changed))

	blocked := BlockedEditFields(StatusPublished, changed)
	assert.Equal(t, []string{"name", "team_based"}, blocked)

	blocked = BlockedEditFields(StatusOngoing, changed)
	assert.Equal(t, []string{"description", "name", "registration_deadline", "team_based"}, blocked)
}

func TestValidateTimeline(t *testing.T) {
	now := time.Now()

	assert.Empty(t, ValidateTimeline(now, now.Add(time.Hour), now.Add(2*time.Hour)))

	violations := ValidateTimeline(now.Add(time.Hour), now, now.Add(2*time.Hour))
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "registration deadline")

	violations = ValidateTimeline(now, now.Add(2*time.Hour), now.Add(time.Hour))
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "start time")

	violations = ValidateTimeline(time.Time{}, now, now.Add(time.Hour))
	require.Len(t, violations, 1)
}

func TestMissingForPublish(t *testing.T) {
	now := time.Now()

	event := Event{
		OrganizerID:          7,
		Name:                 "Hackathon",
		Description:          "24h build sprint",
		Type:                 EventNormal,
		RegistrationDeadline: now,
		StartDate:            now.Add(time.Hour),
		EndDate:              now.Add(25 * time.Hour),
		RegistrationLimit:    100,
		CustomForm:           []FormField{{FieldID: "github", Label: "GitHub", Type: FieldText}},
	}
	assert.Empty(t, event.MissingForPublish())

	event.CustomForm = nil
	missing := event.MissingForPublish()
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "custom_form")

	merch := Event{
		OrganizerID:          7,
		Name:                 "Fest Tee",
		Description:          "Official merch drop",
		Type:                 EventMerchandise,
		RegistrationDeadline: now,
		StartDate:            now.Add(time.Hour),
		EndDate:              now.Add(2 * time.Hour),
		RegistrationLimit:    50,
	}
	missing = merch.MissingForPublish()
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "merchandise")

	team := event
	team.CustomForm = []FormField{{FieldID: "q", Label: "Q", Type: FieldText}}
	team.TeamBased = true
	team.MaxTeamSize = 1
	missing = team.MissingForPublish()
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "max_team_size")
}

func TestValidateCustomFormDefinition(t *testing.T) {
	event := Event{
		Type: EventNormal,
		CustomForm: []FormField{
			{FieldID: "name", Label: "Name", Type: FieldText},
			{FieldID: "name", Label: "Again", Type: FieldText},
			{FieldID: "", Label: "No ID", Type: FieldText},
			{FieldID: "pick", Label: "Pick", Type: FieldDropdown, Required: true},
			{FieldID: "weird", Label: "Weird", Type: FieldType("slider")},
		},
	}

	violations := event.ValidateCustomFormDefinition()
	require.Len(t, violations, 4)
	assert.Contains(t, violations[0], "duplicate custom form fieldId")

	// A required checkbox with no options is a boolean, like a consent box.
	consent := Event{
		Type: EventNormal,
		CustomForm: []FormField{
			{FieldID: "consent", Label: "I agree to the rules", Type: FieldCheckbox, Required: true},
		},
	}
	assert.Empty(t, consent.ValidateCustomFormDefinition())

	merch := Event{Type: EventMerchandise}
	assert.Empty(t, merch.ValidateCustomFormDefinition())
}

func TestEventRegistrable(t *testing.T) {
	now := time.Now()

	event := Event{Status: StatusPublished, RegistrationDeadline: now.Add(time.Hour)}
	ok, _ := event.Registrable(now)
	assert.True(t, ok)

	event.RegistrationDeadline = now.Add(-time.Minute)
	ok, reason := event.Registrable(now)
	assert.False(t, ok)
	assert.Contains(t, reason, "deadline")

	event = Event{Status: StatusDraft, RegistrationDeadline: now.Add(time.Hour)}
	ok, reason = event.Registrable(now)
	assert.False(t, ok)
	assert.Contains(t, reason, "not published")

	event.Status = StatusClosed
	ok, reason = event.Registrable(now)
	assert.False(t, ok)
	assert.Contains(t, reason, "closed")
}
