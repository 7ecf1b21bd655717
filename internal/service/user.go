package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, domain.ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

// OnboardingInput completes a participant's first-login profile.
type OnboardingInput struct {
	ParticipantType    domain.ParticipantType
	CollegeName        string
	ContactNumber      string
	Interests          []string
	FollowedOrganizers []uint
}

func (s *UserService) CompleteOnboarding(ctx context.Context, userID uint, input OnboardingInput) (domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if user.Role != domain.RoleParticipant {
		return domain.User{}, domain.Forbidden("only participants complete onboarding")
	}

	if input.ParticipantType != domain.ParticipantIIIT && input.ParticipantType != domain.ParticipantNonIIIT {
		return domain.User{}, domain.ValidationFailed("onboarding validation failed", "participant type must be IIIT or NON_IIIT")
	}
	if input.ParticipantType == domain.ParticipantNonIIIT && input.CollegeName == "" {
		return domain.User{}, domain.ValidationFailed("onboarding validation failed", "college name is required for NON_IIIT participants")
	}

	user.ParticipantType = input.ParticipantType
	user.CollegeName = input.CollegeName
	user.ContactNumber = input.ContactNumber
	user.Interests = input.Interests
	user.FollowedOrganizers = input.FollowedOrganizers
	user.OnboardingCompleted = true

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// FollowOrganizer toggles an organizer in the participant's followed list.
func (s *UserService) FollowOrganizer(ctx context.Context, userID, organizerID uint, follow bool) (domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	followed := make([]uint, 0, len(user.FollowedOrganizers)+1)
	for _, id := range user.FollowedOrganizers {
		if id != organizerID {
			followed = append(followed, id)
		}
	}
	if follow {
		followed = append(followed, organizerID)
	}
	user.FollowedOrganizers = followed

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}
