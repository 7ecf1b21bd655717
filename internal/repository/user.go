package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindByEmailAndRole(ctx context.Context, email, role string) (dao.User, error)
	FindByRole(ctx context.Context, role string, includeArchived bool) ([]dao.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.User, error)
	Update(ctx context.Context, user dao.User) (dao.User, error)
	SetDisabled(ctx context.Context, id uint, disabled bool) error
	SetArchived(ctx context.Context, id uint, archived bool) error
	UpdatePassword(ctx context.Context, id uint, hashed string) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, userDomainToDao(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return userDaoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) FindByEmailAndRole(ctx context.Context, email string, role domain.Role) (domain.User, error) {
	found, err := r.dao.FindByEmailAndRole(ctx, email, string(role))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmailAndRole -> %w", err)
	}

	return userDaoToDomain(found), nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role, includeArchived bool) ([]domain.User, error) {
	found, err := r.dao.FindByRole(ctx, string(role), includeArchived)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRole -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, userDaoToDomain(u))
	}

	return users, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	found, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIDs -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, userDaoToDomain(u))
	}

	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	updated, err := r.dao.Update(ctx, userDomainToDao(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return userDaoToDomain(updated), nil
}

func (r *UserRepository) SetDisabled(ctx context.Context, id uint, disabled bool) error {
	if err := r.dao.SetDisabled(ctx, id, disabled); err != nil {
		return fmt.Errorf("r.dao.SetDisabled -> %w", err)
	}

	return nil
}

func (r *UserRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	if err := r.dao.SetArchived(ctx, id, archived); err != nil {
		return fmt.Errorf("r.dao.SetArchived -> %w", err)
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	if err := r.dao.UpdatePassword(ctx, id, hashed); err != nil {
		return fmt.Errorf("r.dao.UpdatePassword -> %w", err)
	}

	return nil
}

func userDomainToDao(u domain.User) dao.User {
	return dao.User{
		ID:                  u.ID,
		Email:               u.Email,
		Password:            u.Password,
		Role:                string(u.Role),
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		ParticipantType:     string(u.ParticipantType),
		CollegeName:         u.CollegeName,
		ContactNumber:       u.ContactNumber,
		OrganizerName:       u.OrganizerName,
		Category:            u.Category,
		Description:         u.Description,
		ContactEmail:        u.ContactEmail,
		DiscordWebhookURL:   u.DiscordWebhookURL,
		Interests:           mustJSON(u.Interests),
		FollowedOrganizers:  mustJSON(u.FollowedOrganizers),
		OnboardingCompleted: u.OnboardingCompleted,
		Disabled:            u.Disabled,
		Archived:            u.Archived,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func userDaoToDomain(u dao.User) domain.User {
	var interests []string
	_ = json.Unmarshal(u.Interests, &interests)

	var followed []uint
	_ = json.Unmarshal(u.FollowedOrganizers, &followed)

	return domain.User{
		ID:                  u.ID,
		Email:               u.Email,
		Password:            u.Password,
		Role:                domain.Role(u.Role),
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		ParticipantType:     domain.ParticipantType(u.ParticipantType),
		CollegeName:         u.CollegeName,
		ContactNumber:       u.ContactNumber,
		OrganizerName:       u.OrganizerName,
		Category:            u.Category,
		Description:         u.Description,
		ContactEmail:        u.ContactEmail,
		DiscordWebhookURL:   u.DiscordWebhookURL,
		Interests:           interests,
		FollowedOrganizers:  followed,
		OnboardingCompleted: u.OnboardingCompleted,
		Disabled:            u.Disabled,
		Archived:            u.Archived,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
