package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

// Order is the mutable fulfillment record for a single seller's sale.
// Status, shipping and delivery histories are append-only; the order itself
// is never hard-deleted (cancellation is a terminal status).
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID              `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID         uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	Items            []types.OrderItem      `gorm:"column:items;type:jsonb;serializer:json"`
	TotalAmount      decimal.Decimal        `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethod    enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null;default:'digital'"`
	Status           enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	StatusHistory    []types.StatusChange   `gorm:"column:status_history;type:jsonb;serializer:json"`
	Carrier          enums.Carrier          `gorm:"column:carrier;type:text"`
	TrackingID       string                 `gorm:"column:tracking_id"`
	ShippedAt        *time.Time             `gorm:"column:shipped_at"`
	ShippingHistory  []types.ShippingUpdate `gorm:"column:shipping_history;type:jsonb;serializer:json"`
	ExpectedDelivery *time.Time             `gorm:"column:expected_delivery"`
	DeliveryHistory  []types.DeliveryChange `gorm:"column:delivery_history;type:jsonb;serializer:json"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
