package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
)

var (
	ErrEventNotFound = domain.ErrEventNotFound
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindByIDForOrganizer(ctx context.Context, id, organizerID uint) (domain.Event, error)
	List(ctx context.Context, query repository.EventQuery) ([]domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event, replaceItems bool) (domain.Event, error)
	Delete(ctx context.Context, eventID uint) error
}

type EventRegistrationRepository interface {
	CountOccupiedSpots(ctx context.Context, eventID uint) (int, error)
	ListByEvent(ctx context.Context, eventID uint, statuses []domain.RegistrationStatus) ([]domain.Registration, error)
	ListTeams(ctx context.Context, eventID uint, maxTeamSize int) ([]domain.TeamOption, error)
	FindByEventAndParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error)
}

type EventOrderRepository interface {
	FindOpen(ctx context.Context, eventID, participantID uint) (domain.MerchandiseOrder, error)
	ListByEvent(ctx context.Context, eventID uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error)
}

type EventUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// Notifier publishes organizer announcements to an external channel, such
// as a Discord webhook.
type Notifier interface {
	NotifyEventPublished(ctx context.Context, webhookURL string, event domain.Event) error
}

type EventService struct {
	repo             EventRepository
	registrationRepo EventRegistrationRepository
	orderRepo        EventOrderRepository
	userRepo         EventUserRepository
	notifier         Notifier
}

func NewEventService(
	repo EventRepository,
	registrationRepo EventRegistrationRepository,
	orderRepo EventOrderRepository,
	userRepo EventUserRepository,
	notifier Notifier,
) *EventService {
	return &EventService{
		repo:             repo,
		registrationRepo: registrationRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		notifier:         notifier,
	}
}

// Create persists a new event for the organizer. Events may be created as
// DRAFT or published in one step; any other initial status is rejected.
func (s *EventService) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	if event.Status == "" {
		event.Status = domain.StatusDraft
	}
	if event.Status != domain.StatusDraft && event.Status != domain.StatusPublished {
		return domain.Event{}, domain.StateViolation("a new event must start as %s or %s", domain.StatusDraft, domain.StatusPublished)
	}

	violations := domain.ValidateTimeline(event.RegistrationDeadline, event.StartDate, event.EndDate)
	violations = append(violations, event.ValidateTeamConfiguration()...)
	violations = append(violations, event.ValidateCustomFormDefinition()...)
	violations = append(violations, validateMerchandise(event)...)
	if len(violations) > 0 {
		return domain.Event{}, domain.ValidationFailed("event validation failed", violations...)
	}

	if event.Status == domain.StatusPublished {
		if missing := event.MissingForPublish(); len(missing) > 0 {
			return domain.Event{}, domain.ValidationFailed("event is not ready to publish", missing...)
		}
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if created.Status == domain.StatusPublished {
		s.announcePublished(ctx, created)
	}

	return created, nil
}

// UpdateInput carries the organizer's changed fields. Nil pointers mean
// "leave as is", which is how edit permissions are evaluated per field.
type UpdateInput struct {
	Name                 *string
	Description          *string
	Eligibility          []string
	Tags                 []string
	RegistrationDeadline *time.Time
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationLimit    *int
	RegistrationFee      *int
	TeamBased            *bool
	MaxTeamSize          *int
	CustomForm           []domain.FormField
	Merchandise          []domain.MerchandiseItem
	Status               *domain.EventStatus
}

// Update applies an edit through the lifecycle rules: DRAFT is fully
// editable, PUBLISHED allows description plus deadline extensions and limit
// increases, and later states accept forward status moves only. Blocked
// fields are reported all at once.
func (s *EventService) Update(ctx context.Context, eventID, organizerID uint, input UpdateInput) (domain.Event, error) {
	event, err := s.repo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, domain.ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.repo.FindByIDForOrganizer -> %w", err)
	}

	changed := changedFields(event, input)

	if blocked := domain.BlockedEditFields(event.Status, changed); len(blocked) > 0 {
		return domain.Event{}, domain.ValidationFailed(
			fmt.Sprintf("fields cannot change while the event is %s", event.Status), blocked...)
	}

	wasPublished := event.Status != domain.StatusDraft

	if event.Status == domain.StatusPublished {
		if input.RegistrationDeadline != nil && input.RegistrationDeadline.Before(event.RegistrationDeadline) {
			return domain.Event{}, domain.StateViolation("registration deadline can only be extended after publishing")
		}
		if input.RegistrationLimit != nil && *input.RegistrationLimit < event.RegistrationLimit {
			return domain.Event{}, domain.StateViolation("registration limit can only be increased after publishing")
		}
	}

	if event.FormLocked && fieldChanged(changed, "custom_form") {
		return domain.Event{}, domain.StateViolation("custom form is locked after the first registration")
	}

	replaceItems := fieldChanged(changed, "merchandise")
	event = applyUpdate(event, input)

	if input.Status != nil {
		if err := domain.CheckTransition(event.Status, *input.Status); err != nil {
			return domain.Event{}, err
		}
		event.Status = *input.Status
	}

	violations := domain.ValidateTimeline(event.RegistrationDeadline, event.StartDate, event.EndDate)
	violations = append(violations, event.ValidateTeamConfiguration()...)
	violations = append(violations, event.ValidateCustomFormDefinition()...)
	violations = append(violations, validateMerchandise(event)...)
	if len(violations) > 0 {
		return domain.Event{}, domain.ValidationFailed("event validation failed", violations...)
	}

	if !wasPublished && event.Status != domain.StatusDraft {
		if missing := event.MissingForPublish(); len(missing) > 0 {
			return domain.Event{}, domain.ValidationFailed("event is not ready to publish", missing...)
		}
	}

	updated, err := s.repo.Update(ctx, event, replaceItems)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if !wasPublished && updated.Status == domain.StatusPublished {
		s.announcePublished(ctx, updated)
	}

	return updated, nil
}

// ChangeStatus moves the event along the lifecycle without touching other
// fields.
func (s *EventService) ChangeStatus(ctx context.Context, eventID, organizerID uint, to domain.EventStatus) (domain.Event, error) {
	event, err := s.repo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, domain.ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.repo.FindByIDForOrganizer -> %w", err)
	}

	if err := domain.CheckTransition(event.Status, to); err != nil {
		return domain.Event{}, err
	}

	if event.Status == domain.StatusDraft && to == domain.StatusPublished {
		if missing := event.MissingForPublish(); len(missing) > 0 {
			return domain.Event{}, domain.ValidationFailed("event is not ready to publish", missing...)
		}
	}

	wasDraft := event.Status == domain.StatusDraft
	event.Status = to

	updated, err := s.repo.Update(ctx, event, false)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	if wasDraft && to == domain.StatusPublished {
		s.announcePublished(ctx, updated)
	}

	return updated, nil
}

// Delete removes a DRAFT event. Anything already published must be closed
// instead so registrations keep their history.
func (s *EventService) Delete(ctx context.Context, eventID, organizerID uint) error {
	event, err := s.repo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.ErrEventNotFound
		}

		return fmt.Errorf("s.repo.FindByIDForOrganizer -> %w", err)
	}

	if event.Status != domain.StatusDraft {
		return domain.StateViolation("only draft events can be deleted")
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// EventSummary is a browse-listing entry enriched with occupancy.
type EventSummary struct {
	Event          domain.Event `json:"event"`
	OrganizerName  string       `json:"organizer_name"`
	OccupiedSpots  int          `json:"occupied_spots"`
	AvailableSpots int          `json:"available_spots"`
	Registrable    bool         `json:"registrable"`
	Reason         string       `json:"reason,omitempty"`
}

// BrowseQuery narrows the public event listing.
type BrowseQuery struct {
	Search      string
	Type        domain.EventType
	Eligibility string
	Tag         string
	OrganizerID uint
	From        time.Time
	To          time.Time
}

// Browse lists PUBLISHED and ONGOING events with fuzzy name search and
// in-memory eligibility and tag filtering.
func (s *EventService) Browse(ctx context.Context, query BrowseQuery) ([]EventSummary, error) {
	events, err := s.repo.List(ctx, repository.EventQuery{
		Statuses:    []domain.EventStatus{domain.StatusPublished, domain.StatusOngoing},
		Type:        query.Type,
		OrganizerID: query.OrganizerID,
		From:        query.From,
		To:          query.To,
	})
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	now := time.Now()
	summaries := make([]EventSummary, 0, len(events))
	organizerNames := make(map[uint]string)

	for _, event := range events {
		if query.Search != "" && !fuzzyMatch(event.Name, query.Search) {
			continue
		}
		if query.Eligibility != "" && !containsFold(event.Eligibility, query.Eligibility) {
			continue
		}
		if query.Tag != "" && !containsFold(event.Tags, query.Tag) {
			continue
		}

		occupied, err := s.registrationRepo.CountOccupiedSpots(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("s.registrationRepo.CountOccupiedSpots -> %w", err)
		}

		name, ok := organizerNames[event.OrganizerID]
		if !ok {
			organizer, err := s.userRepo.FindByID(ctx, event.OrganizerID)
			if err == nil {
				name = organizer.DisplayName()
			}
			organizerNames[event.OrganizerID] = name
		}

		available := event.RegistrationLimit - occupied
		if available < 0 {
			available = 0
		}

		registrable, reason := event.Registrable(now)
		if registrable && available == 0 {
			registrable, reason = false, "event is full"
		}

		summaries = append(summaries, EventSummary{
			Event:          event,
			OrganizerName:  name,
			OccupiedSpots:  occupied,
			AvailableSpots: available,
			Registrable:    registrable,
			Reason:         reason,
		})
	}

	return summaries, nil
}

// Trending ranks currently registrable events by fill ratio.
func (s *EventService) Trending(ctx context.Context, limit int) ([]EventSummary, error) {
	summaries, err := s.Browse(ctx, BrowseQuery{})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return fillRatio(summaries[i]) > fillRatio(summaries[j])
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	return summaries, nil
}

// EventDetail is the participant-facing detail view.
type EventDetail struct {
	EventSummary

	AlreadyRegistered bool                     `json:"already_registered"`
	ExistingOrder     *domain.MerchandiseOrder `json:"existing_order,omitempty"`
	TeamOptions       []domain.TeamOption      `json:"team_options,omitempty"`
}

// Detail returns one event with the viewer's registration state. Unpublished
// events are only visible to their organizer.
func (s *EventService) Detail(ctx context.Context, eventID uint, viewer domain.User) (EventDetail, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return EventDetail{}, domain.ErrEventNotFound
		}

		return EventDetail{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if event.Status == domain.StatusDraft && event.OrganizerID != viewer.ID {
		return EventDetail{}, domain.ErrEventNotFound
	}

	occupied, err := s.registrationRepo.CountOccupiedSpots(ctx, event.ID)
	if err != nil {
		return EventDetail{}, fmt.Errorf("s.registrationRepo.CountOccupiedSpots -> %w", err)
	}

	available := event.RegistrationLimit - occupied
	if available < 0 {
		available = 0
	}

	registrable, reason := event.Registrable(time.Now())
	if registrable && available == 0 {
		registrable, reason = false, "event is full"
	}

	detail := EventDetail{
		EventSummary: EventSummary{
			Event:          event,
			OccupiedSpots:  occupied,
			AvailableSpots: available,
			Registrable:    registrable,
			Reason:         reason,
		},
	}

	if organizer, err := s.userRepo.FindByID(ctx, event.OrganizerID); err == nil {
		detail.OrganizerName = organizer.DisplayName()
	}

	if viewer.Role == domain.RoleParticipant {
		if _, err := s.registrationRepo.FindByEventAndParticipant(ctx, event.ID, viewer.ID); err == nil {
			detail.AlreadyRegistered = true
		}

		if event.Type == domain.EventMerchandise {
			if order, err := s.orderRepo.FindOpen(ctx, event.ID, viewer.ID); err == nil {
				detail.ExistingOrder = &order
			}
		}

		if event.TeamBased {
			teams, err := s.registrationRepo.ListTeams(ctx, event.ID, event.MaxTeamSize)
			if err != nil {
				return EventDetail{}, fmt.Errorf("s.registrationRepo.ListTeams -> %w", err)
			}
			detail.TeamOptions = teams
		}
	}

	return detail, nil
}

func (s *EventService) FindForOrganizer(ctx context.Context, eventID, organizerID uint) (domain.Event, error) {
	event, err := s.repo.FindByIDForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, domain.ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.repo.FindByIDForOrganizer -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error) {
	events, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByOrganizer -> %w", err)
	}

	return events, nil
}

// EventAnalytics summarizes one event for the organizer dashboard.
type EventAnalytics struct {
	EventID           uint    `json:"event_id"`
	EventName         string  `json:"event_name"`
	Status            string  `json:"status"`
	RegistrationLimit int     `json:"registration_limit"`
	OccupiedSpots     int     `json:"occupied_spots"`
	FillRatio         float64 `json:"fill_ratio"`
	PendingOrders     int     `json:"pending_orders"`
	ApprovedOrders    int     `json:"approved_orders"`
	Revenue           int     `json:"revenue"`
}

func (s *EventService) Analytics(ctx context.Context, eventID, organizerID uint) (EventAnalytics, error) {
	event, err := s.FindForOrganizer(ctx, eventID, organizerID)
	if err != nil {
		return EventAnalytics{}, err
	}

	occupied, err := s.registrationRepo.CountOccupiedSpots(ctx, event.ID)
	if err != nil {
		return EventAnalytics{}, fmt.Errorf("s.registrationRepo.CountOccupiedSpots -> %w", err)
	}

	analytics := EventAnalytics{
		EventID:           event.ID,
		EventName:         event.Name,
		Status:            string(event.Status),
		RegistrationLimit: event.RegistrationLimit,
		OccupiedSpots:     occupied,
	}
	if event.RegistrationLimit > 0 {
		analytics.FillRatio = float64(occupied) / float64(event.RegistrationLimit)
	}

	if event.Type == domain.EventMerchandise {
		pending, err := s.orderRepo.ListByEvent(ctx, event.ID, domain.OrderPendingApproval)
		if err != nil {
			return EventAnalytics{}, fmt.Errorf("s.orderRepo.ListByEvent -> %w", err)
		}
		analytics.PendingOrders = len(pending)

		approved, err := s.orderRepo.ListByEvent(ctx, event.ID, domain.OrderApproved)
		if err != nil {
			return EventAnalytics{}, fmt.Errorf("s.orderRepo.ListByEvent -> %w", err)
		}
		analytics.ApprovedOrders = len(approved)
		for _, order := range approved {
			analytics.Revenue += order.Amount
		}
	} else {
		registrations, err := s.registrationRepo.ListByEvent(ctx, event.ID, domain.ActiveRegistrationStatuses)
		if err != nil {
			return EventAnalytics{}, fmt.Errorf("s.registrationRepo.ListByEvent -> %w", err)
		}
		analytics.Revenue = len(registrations) * event.RegistrationFee
	}

	return analytics, nil
}

func (s *EventService) announcePublished(ctx context.Context, event domain.Event) {
	if s.notifier == nil {
		return
	}

	organizer, err := s.userRepo.FindByID(ctx, event.OrganizerID)
	if err != nil || organizer.DiscordWebhookURL == "" {
		return
	}

	go func() {
		detached := context.WithoutCancel(ctx)
		if err := s.notifier.NotifyEventPublished(detached, organizer.DiscordWebhookURL, event); err != nil {
			zap.L().Warn("publish announcement failed",
				zap.Uint("event_id", event.ID),
				zap.Error(err))
		}
	}()
}

func validateMerchandise(event domain.Event) []string {
	if event.Type != domain.EventMerchandise {
		return nil
	}

	var violations []string
	seen := make(map[string]bool, len(event.Merchandise))

	for _, item := range event.Merchandise {
		if item.SKU == "" {
			violations = append(violations, "each merchandise item must have a sku")
			continue
		}
		if seen[item.SKU] {
			violations = append(violations, fmt.Sprintf("duplicate merchandise sku: %s", item.SKU))
		}
		seen[item.SKU] = true

		if item.Name == "" {
			violations = append(violations, fmt.Sprintf("merchandise item %s must have a name", item.SKU))
		}
		if item.Price < 0 {
			violations = append(violations, fmt.Sprintf("merchandise item %s price cannot be negative", item.SKU))
		}
		if item.Stock < 0 {
			violations = append(violations, fmt.Sprintf("merchandise item %s stock cannot be negative", item.SKU))
		}
		if item.PurchaseLimit < 1 {
			violations = append(violations, fmt.Sprintf("merchandise item %s purchase limit must be at least 1", item.SKU))
		}
	}

	return violations
}

// changedFields names every field the input actually changes, using the
// snake_case names that edit rules and error messages share.
func changedFields(event domain.Event, input UpdateInput) []string {
	var changed []string

	if input.Name != nil && *input.Name != event.Name {
		changed = append(changed, "name")
	}
	if input.Description != nil && *input.Description != event.Description {
		changed = append(changed, "description")
	}
	if input.Eligibility != nil && !equalStrings(input.Eligibility, event.Eligibility) {
		changed = append(changed, "eligibility")
	}
	if input.Tags != nil && !equalStrings(input.Tags, event.Tags) {
		changed = append(changed, "tags")
	}
	if input.RegistrationDeadline != nil && !input.RegistrationDeadline.Equal(event.RegistrationDeadline) {
		changed = append(changed, "registration_deadline")
	}
	if input.StartDate != nil && !input.StartDate.Equal(event.StartDate) {
		changed = append(changed, "start_date")
	}
	if input.EndDate != nil && !input.EndDate.Equal(event.EndDate) {
		changed = append(changed, "end_date")
	}
	if input.RegistrationLimit != nil && *input.RegistrationLimit != event.RegistrationLimit {
		changed = append(changed, "registration_limit")
	}
	if input.RegistrationFee != nil && *input.RegistrationFee != event.RegistrationFee {
		changed = append(changed, "registration_fee")
	}
	if input.TeamBased != nil && *input.TeamBased != event.TeamBased {
		changed = append(changed, "team_based")
	}
	if input.MaxTeamSize != nil && *input.MaxTeamSize != event.MaxTeamSize {
		changed = append(changed, "max_team_size")
	}
	if input.CustomForm != nil {
		changed = append(changed, "custom_form")
	}
	if input.Merchandise != nil {
		changed = append(changed, "merchandise")
	}

	return changed
}

func applyUpdate(event domain.Event, input UpdateInput) domain.Event {
	if input.Name != nil {
		event.Name = *input.Name
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Eligibility != nil {
		event.Eligibility = input.Eligibility
	}
	if input.Tags != nil {
		event.Tags = input.Tags
	}
	if input.RegistrationDeadline != nil {
		event.RegistrationDeadline = *input.RegistrationDeadline
	}
	if input.StartDate != nil {
		event.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		event.EndDate = *input.EndDate
	}
	if input.RegistrationLimit != nil {
		event.RegistrationLimit = *input.RegistrationLimit
	}
	if input.RegistrationFee != nil {
		event.RegistrationFee = *input.RegistrationFee
	}
	if input.TeamBased != nil {
		event.TeamBased = *input.TeamBased
	}
	if input.MaxTeamSize != nil {
		event.MaxTeamSize = *input.MaxTeamSize
	}
	if input.CustomForm != nil {
		event.CustomForm = input.CustomForm
	}
	if input.Merchandise != nil {
		event.Merchandise = input.Merchandise
	}

	return event
}

func fieldChanged(changed []string, name string) bool {
	for _, field := range changed {
		if field == name {
			return true
		}
	}

	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// fuzzyMatch accepts substring hits and in-order subsequence hits, so
// "hakthon" still finds "Hackathon".
func fuzzyMatch(name, search string) bool {
	name = strings.ToLower(name)
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	if strings.Contains(name, search) {
		return true
	}

	i := 0
	for _, r := range name {
		if i < len(search) && rune(search[i]) == r {
			i++
		}
	}

	return i == len(search)
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}

	return false
}

func fillRatio(s EventSummary) float64 {
	if s.Event.RegistrationLimit == 0 {
		return 0
	}

	return float64(s.OccupiedSpots) / float64(s.Event.RegistrationLimit)
}
