package ledger

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/pkg/db"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

// Repository exposes ledger persistence. FindForUpdate acquires a row lock so
// read-modify-write cycles inside a transaction stay serialized per seller.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePosting(ctx context.Context, posting *models.LedgerPosting) error
	FindForUpdate(ctx context.Context, sellerID uuid.UUID) (*models.SellerLedger, error)
	Save(ctx context.Context, ledger *models.SellerLedger) error
	SellerIDsWithSales(ctx context.Context) ([]uuid.UUID, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(database *gorm.DB) Repository {
	return &gormRepository{db: database}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) CreatePosting(ctx context.Context, posting *models.LedgerPosting) error {
	if posting == nil {
		return fmt.Errorf("posting is required")
	}
	if posting.ID == uuid.Nil {
		posting.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(posting).Error
}

// FindForUpdate returns the seller's locked ledger row, creating a zeroed
// ledger on first use.
func (r *gormRepository) FindForUpdate(ctx context.Context, sellerID uuid.UUID) (*models.SellerLedger, error) {
	var ledger models.SellerLedger
	err := db.WithRowLock(r.db.WithContext(ctx)).
		Where("seller_id = ?", sellerID).
		First(&ledger).Error
	if err == nil {
		return &ledger, nil
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ledger = models.SellerLedger{
		SellerID:         sellerID,
		TotalSales:       decimal.Zero,
		COD:              decimal.Zero,
		DailyStats:       types.ZeroedWeek(),
		LastPayoutAmount: decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&ledger).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			// Lost the creation race; the row exists now, lock it.
			return r.FindForUpdate(ctx, sellerID)
		}
		return nil, err
	}
	return &ledger, nil
}

func (r *gormRepository) Save(ctx context.Context, ledger *models.SellerLedger) error {
	if ledger == nil {
		return fmt.Errorf("ledger is required")
	}
	return r.db.WithContext(ctx).Save(ledger).Error
}

// SellerIDsWithSales lists sellers whose ledgers carry accrued sales.
func (r *gormRepository) SellerIDsWithSales(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.SellerLedger{}).
		Where("total_sales > 0").
		Order("seller_id").
		Pluck("seller_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
