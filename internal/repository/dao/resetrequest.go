package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrResetRequestNotFound = errors.New("password reset request not found")

type PasswordResetRequest struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"not null;index"`
	Status      string `gorm:"not null;default:PENDING"` // "PENDING", "RESOLVED", "DISMISSED"
	ResolvedBy  *uint
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ResetRequestDAO struct {
	db *gorm.DB
}

func NewResetRequestDAO(db *gorm.DB) *ResetRequestDAO {
	return &ResetRequestDAO{
		db: db,
	}
}

func (d *ResetRequestDAO) Insert(ctx context.Context, request PasswordResetRequest) (PasswordResetRequest, error) {
	result := d.db.WithContext(ctx).Create(&request)
	if result.Error != nil {
		return PasswordResetRequest{}, result.Error
	}

	return request, nil
}

func (d *ResetRequestDAO) FindByID(ctx context.Context, id uint) (PasswordResetRequest, error) {
	var request PasswordResetRequest

	result := d.db.WithContext(ctx).First(&request, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return PasswordResetRequest{}, ErrResetRequestNotFound
		}

		return PasswordResetRequest{}, result.Error
	}

	return request, nil
}

func (d *ResetRequestDAO) FindPendingByUser(ctx context.Context, userID uint) (PasswordResetRequest, error) {
	var request PasswordResetRequest

	result := d.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, "PENDING").
		First(&request)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return PasswordResetRequest{}, ErrResetRequestNotFound
		}

		return PasswordResetRequest{}, result.Error
	}

	return request, nil
}

func (d *ResetRequestDAO) ListPending(ctx context.Context) ([]PasswordResetRequest, error) {
	var requests []PasswordResetRequest

	result := d.db.WithContext(ctx).
		Where("status = ?", "PENDING").
		Order("created_at asc").
		Find(&requests)
	if result.Error != nil {
		return nil, result.Error
	}

	return requests, nil
}

func (d *ResetRequestDAO) Update(ctx context.Context, request PasswordResetRequest) (PasswordResetRequest, error) {
	result := d.db.WithContext(ctx).Save(&request)
	if result.Error != nil {
		return PasswordResetRequest{}, result.Error
	}

	return request, nil
}
