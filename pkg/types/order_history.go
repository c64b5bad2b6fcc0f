package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
)

// OrderItem is one purchased line inside an order.
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Price     decimal.Decimal `json:"price"`
}

// StatusChange is one append-only entry in an order's status history.
type StatusChange struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	UpdatedBy uuid.UUID         `json:"updated_by"`
	Note      string            `json:"note,omitempty"`
}

// ShippingUpdate is one append-only entry in an order's shipping history.
// Repeated identical updates are recorded as distinct events, not deduplicated.
type ShippingUpdate struct {
	Carrier    enums.Carrier `json:"carrier"`
	TrackingID string        `json:"tracking_id"`
	UpdatedBy  uuid.UUID     `json:"updated_by"`
	Timestamp  time.Time     `json:"timestamp"`
}

// DeliveryChange is one append-only entry in an order's expected-delivery history.
type DeliveryChange struct {
	PreviousDate *time.Time `json:"previous_date,omitempty"`
	NewDate      time.Time  `json:"new_date"`
	ChangedBy    uuid.UUID  `json:"changed_by"`
	Timestamp    time.Time  `json:"timestamp"`
}
