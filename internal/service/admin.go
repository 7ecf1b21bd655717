package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
)

type AdminUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	ListByRole(ctx context.Context, role domain.Role, includeArchived bool) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	SetDisabled(ctx context.Context, id uint, disabled bool) error
	SetArchived(ctx context.Context, id uint, archived bool) error
	UpdatePassword(ctx context.Context, id uint, hashed string) error
}

type ResetRequestRepository interface {
	Create(ctx context.Context, request domain.PasswordResetRequest) (domain.PasswordResetRequest, error)
	FindByID(ctx context.Context, id uint) (domain.PasswordResetRequest, error)
	FindPendingByUser(ctx context.Context, userID uint) (domain.PasswordResetRequest, error)
	ListPending(ctx context.Context) ([]domain.PasswordResetRequest, error)
	Update(ctx context.Context, request domain.PasswordResetRequest) (domain.PasswordResetRequest, error)
}

// AdminService covers everything only admins do: provisioning organizer
// accounts and settling password reset requests.
type AdminService struct {
	userRepo  AdminUserRepository
	resetRepo ResetRequestRepository
}

func NewAdminService(userRepo AdminUserRepository, resetRepo ResetRequestRepository) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
	}
}

// OrganizerInput provisions or edits an organizer account.
type OrganizerInput struct {
	Email             string
	Password          string
	OrganizerName     string
	Category          string
	Description       string
	ContactEmail      string
	DiscordWebhookURL string
}

func (s *AdminService) CreateOrganizer(ctx context.Context, input OrganizerInput) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	created, err := s.userRepo.Create(ctx, domain.User{
		Role:              domain.RoleOrganizer,
		Email:             input.Email,
		Password:          string(hash),
		OrganizerName:     input.OrganizerName,
		Category:          input.Category,
		Description:       input.Description,
		ContactEmail:      input.ContactEmail,
		DiscordWebhookURL: input.DiscordWebhookURL,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.userRepo.Create -> %w", err)
	}

	return created, nil
}

func (s *AdminService) ListOrganizers(ctx context.Context, includeArchived bool) ([]domain.User, error) {
	organizers, err := s.userRepo.ListByRole(ctx, domain.RoleOrganizer, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.ListByRole -> %w", err)
	}

	return organizers, nil
}

func (s *AdminService) UpdateOrganizer(ctx context.Context, organizerID uint, input OrganizerInput) (domain.User, error) {
	organizer, err := s.findOrganizer(ctx, organizerID)
	if err != nil {
		return domain.User{}, err
	}

	if input.OrganizerName != "" {
		organizer.OrganizerName = input.OrganizerName
	}
	if input.Category != "" {
		organizer.Category = input.Category
	}
	organizer.Description = input.Description
	organizer.ContactEmail = input.ContactEmail
	organizer.DiscordWebhookURL = input.DiscordWebhookURL

	updated, err := s.userRepo.Update(ctx, organizer)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.userRepo.Update -> %w", err)
	}

	return updated, nil
}

// SetOrganizerDisabled blocks or unblocks logins without touching the
// organizer's events.
func (s *AdminService) SetOrganizerDisabled(ctx context.Context, organizerID uint, disabled bool) error {
	if _, err := s.findOrganizer(ctx, organizerID); err != nil {
		return err
	}

	if err := s.userRepo.SetDisabled(ctx, organizerID, disabled); err != nil {
		return fmt.Errorf("s.userRepo.SetDisabled -> %w", err)
	}

	return nil
}

// ArchiveOrganizer retires the account. Archived organizers disappear from
// the default listing but their history stays.
func (s *AdminService) ArchiveOrganizer(ctx context.Context, organizerID uint) error {
	if _, err := s.findOrganizer(ctx, organizerID); err != nil {
		return err
	}

	if err := s.userRepo.SetArchived(ctx, organizerID, true); err != nil {
		return fmt.Errorf("s.userRepo.SetArchived -> %w", err)
	}

	return nil
}

// RequestPasswordReset files a pending request for the organizer. Only one
// pending request per account exists at a time.
func (s *AdminService) RequestPasswordReset(ctx context.Context, organizerID uint) (domain.PasswordResetRequest, error) {
	if _, err := s.findOrganizer(ctx, organizerID); err != nil {
		return domain.PasswordResetRequest{}, err
	}

	if existing, err := s.resetRepo.FindPendingByUser(ctx, organizerID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrResetRequestNotFound) {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.FindPendingByUser -> %w", err)
	}

	request, err := s.resetRepo.Create(ctx, domain.PasswordResetRequest{
		UserID: organizerID,
		Status: domain.ResetRequestPending,
	})
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.Create -> %w", err)
	}

	return request, nil
}

func (s *AdminService) ListResetRequests(ctx context.Context) ([]domain.PasswordResetRequest, error) {
	requests, err := s.resetRepo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.resetRepo.ListPending -> %w", err)
	}

	return requests, nil
}

// ResolveResetRequest sets the new password and closes the request.
func (s *AdminService) ResolveResetRequest(ctx context.Context, requestID, adminID uint, newPassword string) (domain.PasswordResetRequest, error) {
	request, err := s.resetRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrResetRequestNotFound) {
			return domain.PasswordResetRequest{}, domain.NotFound("password reset request not found")
		}

		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.FindByID -> %w", err)
	}

	if request.Status != domain.ResetRequestPending {
		return domain.PasswordResetRequest{}, domain.StateViolation("request was already settled")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, request.UserID, string(hash)); err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.userRepo.UpdatePassword -> %w", err)
	}

	now := time.Now()
	request.Status = domain.ResetRequestResolved
	request.ResolvedBy = &adminID
	request.ResolvedAt = &now

	updated, err := s.resetRepo.Update(ctx, request)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.Update -> %w", err)
	}

	return updated, nil
}

// DismissResetRequest closes the request without changing the password.
func (s *AdminService) DismissResetRequest(ctx context.Context, requestID, adminID uint) (domain.PasswordResetRequest, error) {
	request, err := s.resetRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrResetRequestNotFound) {
			return domain.PasswordResetRequest{}, domain.NotFound("password reset request not found")
		}

		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.FindByID -> %w", err)
	}

	if request.Status != domain.ResetRequestPending {
		return domain.PasswordResetRequest{}, domain.StateViolation("request was already settled")
	}

	now := time.Now()
	request.Status = domain.ResetRequestDismissed
	request.ResolvedBy = &adminID
	request.ResolvedAt = &now

	updated, err := s.resetRepo.Update(ctx, request)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.Update -> %w", err)
	}

	return updated, nil
}

func (s *AdminService) findOrganizer(ctx context.Context, organizerID uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}
	if user.Role != domain.RoleOrganizer {
		return domain.User{}, domain.ErrUserNotFound
	}

	return user, nil
}
