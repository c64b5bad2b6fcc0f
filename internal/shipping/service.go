package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/internal/orders"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UpdateShippingInput carries one carrier/tracking annotation for an order.
type UpdateShippingInput struct {
	OrderID    uuid.UUID
	Carrier    string
	TrackingID string
	ActorID    uuid.UUID
	ActorRole  enums.MemberRole
}

// UpdateDeliveryInput carries one expected-delivery change for an order.
type UpdateDeliveryInput struct {
	OrderID   uuid.UUID
	Date      string
	ActorID   uuid.UUID
	ActorRole enums.MemberRole
}

// Service records shipping and expected-delivery annotations. These never
// change order status; status moves only through the order state machine.
type Service interface {
	UpdateShipping(ctx context.Context, input UpdateShippingInput) (*models.Order, error)
	UpdateExpectedDelivery(ctx context.Context, input UpdateDeliveryInput) (*models.Order, error)
}

type service struct {
	repo orders.Repository
	tx   txRunner
}

func NewService(repo orders.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// UpdateShipping sets carrier and tracking and appends a shipping event.
// ShippedAt is first-write-wins. Repeated identical updates append new events
// rather than deduplicating.
func (s *service) UpdateShipping(ctx context.Context, input UpdateShippingInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	carrier, err := enums.ParseCarrier(input.Carrier)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid carrier")
	}
	tracking := orders.SanitizeTrackingID(input.TrackingID)
	if tracking == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadOwnedOrder(ctx, repo, input.OrderID, input.ActorID, input.ActorRole)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		loaded.Carrier = carrier
		loaded.TrackingID = tracking
		if loaded.ShippedAt == nil {
			shippedAt := now
			loaded.ShippedAt = &shippedAt
		}
		loaded.ShippingHistory = append(loaded.ShippingHistory, types.ShippingUpdate{
			Carrier:    carrier,
			TrackingID: tracking,
			UpdatedBy:  input.ActorID,
			Timestamp:  now,
		})

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return order, nil
}

// UpdateExpectedDelivery replaces the expected date and appends the
// previous/new pair to the delivery history. Dates before the current
// calendar day are rejected.
func (s *service) UpdateExpectedDelivery(ctx context.Context, input UpdateDeliveryInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	newDate, err := parseDeliveryDate(input.Date)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid expected delivery date")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if newDate.Truncate(24 * time.Hour).Before(today) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected delivery cannot be in the past")
	}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadOwnedOrder(ctx, repo, input.OrderID, input.ActorID, input.ActorRole)
		if err != nil {
			return err
		}

		var previous *time.Time
		if loaded.ExpectedDelivery != nil {
			prev := *loaded.ExpectedDelivery
			previous = &prev
		}
		loaded.DeliveryHistory = append(loaded.DeliveryHistory, types.DeliveryChange{
			PreviousDate: previous,
			NewDate:      newDate,
			ChangedBy:    input.ActorID,
			Timestamp:    time.Now().UTC(),
		})
		loaded.ExpectedDelivery = &newDate

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return order, nil
}

func (s *service) loadOwnedOrder(ctx context.Context, repo orders.Repository, orderID, actorID uuid.UUID, role enums.MemberRole) (*models.Order, error) {
	loaded, err := repo.FindForUpdate(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if role != enums.MemberRoleAdmin && loaded.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
	}
	return loaded, nil
}

func parseDeliveryDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
