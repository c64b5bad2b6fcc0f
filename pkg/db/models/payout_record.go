package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

// PayoutRecord is the immutable result of one reconciliation run for one
// seller. It is created exactly once per seller per run with accrued sales
// and never mutated afterward.
type PayoutRecord struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID            uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	TransactionID       string             `gorm:"column:transaction_id;not null;uniqueIndex"`
	Date                time.Time          `gorm:"column:date;not null"`
	PeriodStart         time.Time          `gorm:"column:period_start;not null"`
	PeriodEnd           time.Time          `gorm:"column:period_end;not null"`
	NumberOfOrders      int                `gorm:"column:number_of_orders;not null"`
	CODTransactions     int                `gorm:"column:cod_transactions;not null"`
	DigitalTransactions int                `gorm:"column:digital_transactions;not null"`
	TotalSales          decimal.Decimal    `gorm:"column:total_sales;type:numeric(14,2);not null"`
	CODAmount           decimal.Decimal    `gorm:"column:cod_amount;type:numeric(14,2);not null"`
	DigitalAmount       decimal.Decimal    `gorm:"column:digital_amount;type:numeric(14,2);not null"`
	PlatformFee         decimal.Decimal    `gorm:"column:platform_fee;type:numeric(14,2);not null"`
	Earnings            decimal.Decimal    `gorm:"column:earnings;type:numeric(14,2);not null"`
	Method              string             `gorm:"column:method;not null"`
	Status              enums.PayoutStatus `gorm:"column:status;type:text;not null"`
	DailyBreakdown      types.WeekStats    `gorm:"column:daily_breakdown;type:jsonb;serializer:json"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
}
