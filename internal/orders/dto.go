package orders

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
)

// TransitionInput captures one requested status change on an order.
type TransitionInput struct {
	OrderID    uuid.UUID
	Status     enums.OrderStatus
	TrackingID string
	Note       string
	ActorID    uuid.UUID
	ActorRole  enums.MemberRole
}

// StatusChangedEvent is published after a status transition commits.
type StatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ChangedBy     uuid.UUID           `json:"changed_by"`
	ChangedAt     time.Time           `json:"changed_at"`
}

var trackingIDPattern = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeTrackingID strips everything outside [A-Za-z0-9_-] from a carrier
// tracking number.
func SanitizeTrackingID(raw string) string {
	return trackingIDPattern.ReplaceAllString(raw, "")
}
