package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
)

// LedgerPosting marks an order as already counted toward its seller's ledger.
// The unique order id constraint is the exactly-once guard for revenue posting.
type LedgerPosting struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	SellerID      uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ConfirmedAt   time.Time           `gorm:"column:confirmed_at;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
