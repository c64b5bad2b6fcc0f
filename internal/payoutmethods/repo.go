package payoutmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
)

// Repository exposes payout method persistence for one seller's registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, method *models.PayoutMethod) (*models.PayoutMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutMethod, error)
	CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
	ClearDefault(ctx context.Context, sellerID uuid.UUID) error
	MarkDefault(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindDefaultBySeller(ctx context.Context, sellerID uuid.UUID) (*models.PayoutMethod, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(database *gorm.DB) Repository {
	return &repository{db: database}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, method *models.PayoutMethod) (*models.PayoutMethod, error) {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(method).Error; err != nil {
		return nil, err
	}
	return method, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutMethod, error) {
	var method models.PayoutMethod
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutMethod, error) {
	var methods []models.PayoutMethod
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PayoutMethod{}).
		Where("seller_id = ?", sellerID).
		Count(&count).Error
	return count, err
}

func (r *repository) ClearDefault(ctx context.Context, sellerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutMethod{}).
		Where("seller_id = ? AND is_default = ?", sellerID, true).
		Update("is_default", false).Error
}

func (r *repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutMethod{}).
		Where("id = ?", id).
		Update("is_default", true).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PayoutMethod{}).Error
}

func (r *repository) FindDefaultBySeller(ctx context.Context, sellerID uuid.UUID) (*models.PayoutMethod, error) {
	var method models.PayoutMethod
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND is_default = ?", sellerID, true).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}
