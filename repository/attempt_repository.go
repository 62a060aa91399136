package repository

import (
	"context"
	"time"

	"checkout-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptRepository persists the audit trail of checkout attempts.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.CheckoutAttempt) error
	RecordPricing(ctx context.Context, id uuid.UUID, couponID *string, price models.PriceBreakdown) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, checkoutURL *string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, total int64) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutAttempt, error)
}

type gormAttemptRepo struct {
	db *gorm.DB
}

func NewGormAttemptRepo(db *gorm.DB) AttemptRepository {
	return &gormAttemptRepo{db: db}
}

func (r *gormAttemptRepo) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *gormAttemptRepo) RecordPricing(ctx context.Context, id uuid.UUID, couponID *string, price models.PriceBreakdown) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"coupon_id": couponID,
			"subtotal":  price.Subtotal,
			"discount":  price.Discount,
			"total":     price.Total,
		}).Error
}

func (r *gormAttemptRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, checkoutURL *string) error {
	updates := map[string]interface{}{"status": status}
	if checkoutURL != nil {
		updates["checkout_url"] = checkoutURL
	}
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *gormAttemptRepo) MarkCompleted(ctx context.Context, id uuid.UUID, total int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       "completed",
			"total":        total,
			"completed_at": &now,
		}).Error
}

func (r *gormAttemptRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}
