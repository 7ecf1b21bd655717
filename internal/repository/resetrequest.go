package repository

import (
	"context"
	"fmt"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository/dao"
)

var ErrResetRequestNotFound = dao.ErrResetRequestNotFound

type ResetRequestDAO interface {
	Insert(ctx context.Context, request dao.PasswordResetRequest) (dao.PasswordResetRequest, error)
	FindByID(ctx context.Context, id uint) (dao.PasswordResetRequest, error)
	FindPendingByUser(ctx context.Context, userID uint) (dao.PasswordResetRequest, error)
	ListPending(ctx context.Context) ([]dao.PasswordResetRequest, error)
	Update(ctx context.Context, request dao.PasswordResetRequest) (dao.PasswordResetRequest, error)
}

type ResetRequestRepository struct {
	dao ResetRequestDAO
}

func NewResetRequestRepository(dao ResetRequestDAO) *ResetRequestRepository {
	return &ResetRequestRepository{
		dao: dao,
	}
}

func (r *ResetRequestRepository) Create(ctx context.Context, request domain.PasswordResetRequest) (domain.PasswordResetRequest, error) {
	created, err := r.dao.Insert(ctx, resetRequestDomainToDao(request))
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return resetRequestDaoToDomain(created), nil
}

func (r *ResetRequestRepository) FindByID(ctx context.Context, id uint) (domain.PasswordResetRequest, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return resetRequestDaoToDomain(found), nil
}

func (r *ResetRequestRepository) FindPendingByUser(ctx context.Context, userID uint) (domain.PasswordResetRequest, error) {
	found, err := r.dao.FindPendingByUser(ctx, userID)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.FindPendingByUser -> %w", err)
	}

	return resetRequestDaoToDomain(found), nil
}

func (r *ResetRequestRepository) ListPending(ctx context.Context) ([]domain.PasswordResetRequest, error) {
	found, err := r.dao.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListPending -> %w", err)
	}

	requests := make([]domain.PasswordResetRequest, 0, len(found))
	for _, req := range found {
		requests = append(requests, resetRequestDaoToDomain(req))
	}

	return requests, nil
}

func (r *ResetRequestRepository) Update(ctx context.Context, request domain.PasswordResetRequest) (domain.PasswordResetRequest, error) {
	updated, err := r.dao.Update(ctx, resetRequestDomainToDao(request))
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return resetRequestDaoToDomain(updated), nil
}

func resetRequestDomainToDao(p domain.PasswordResetRequest) dao.PasswordResetRequest {
	return dao.PasswordResetRequest{
		ID:         p.ID,
		UserID:     p.UserID,
		Status:     string(p.Status),
		ResolvedBy: p.ResolvedBy,
		ResolvedAt: p.ResolvedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func resetRequestDaoToDomain(p dao.PasswordResetRequest) domain.PasswordResetRequest {
	return domain.PasswordResetRequest{
		ID:         p.ID,
		UserID:     p.UserID,
		Status:     domain.ResetRequestStatus(p.Status),
		ResolvedBy: p.ResolvedBy,
		ResolvedAt: p.ResolvedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
