package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

// SellerLedger accumulates a seller's revenue-recognized sales between payout
// runs. Outside an in-flight update the bucket sales always sum to TotalSales
// and COD never exceeds TotalSales.
type SellerLedger struct {
	SellerID         uuid.UUID       `gorm:"column:seller_id;type:uuid;primaryKey"`
	TotalSales       decimal.Decimal `gorm:"column:total_sales;type:numeric(14,2);not null;default:0"`
	COD              decimal.Decimal `gorm:"column:cod;type:numeric(14,2);not null;default:0"`
	DailyStats       types.WeekStats `gorm:"column:daily_stats;type:jsonb;serializer:json"`
	LastPayoutDate   *time.Time      `gorm:"column:last_payout_date"`
	LastPayoutAmount decimal.Decimal `gorm:"column:last_payout_amount;type:numeric(14,2);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
