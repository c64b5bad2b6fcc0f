package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
)

// Repository persists immutable payout records. Records are insert-only;
// there is deliberately no update surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRecord(ctx context.Context, record *models.PayoutRecord) (*models.PayoutRecord, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutRecord, error)
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

func (r *repository) CreateRecord(ctx context.Context, record *models.PayoutRecord) (*models.PayoutRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutRecord, error) {
	var records []models.PayoutRecord
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("date DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
