package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/internal/ledger"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
)

// Repository exposes order persistence. FindForUpdate locks the order row so
// history appends inside a transaction cannot interleave.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerPoster interface {
	PostSale(ctx context.Context, tx *gorm.DB, input ledger.PostSaleInput) (bool, error)
}

type eventPublisher interface {
	PublishOrderEvent(ctx context.Context, data []byte, attrs map[string]string) error
}
