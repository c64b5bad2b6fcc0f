package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/internal/ledger"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

// Service defines order lifecycle operations.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	ConfirmCOD(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.MemberRole) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledgers ledgerPoster
	events  eventPublisher
	logg    *logger.Logger
	strict  bool
}

// NewService builds the order service. The events publisher is optional;
// everything else is required.
func NewService(repo Repository, tx txRunner, ledgers ledgerPoster, events eventPublisher, logg *logger.Logger, strict bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgers == nil {
		return nil, fmt.Errorf("ledger poster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledgers: ledgers,
		events:  events,
		logg:    logg,
		strict:  strict,
	}, nil
}

// Transition moves an order to a new status, appends the audit entry and, on
// the confirming change, posts the sale into the seller's weekly ledger inside
// the same transaction.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole == enums.MemberRoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "buyers cannot update order status")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if input.ActorRole == enums.MemberRoleSeller && loaded.SellerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
		}
		if s.strict && !canTransition(loaded.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]string{
					"from": string(loaded.Status),
					"to":   string(input.Status),
				})
		}

		now := time.Now().UTC()
		loaded.StatusHistory = append(loaded.StatusHistory, types.StatusChange{
			Status:    input.Status,
			Timestamp: now,
			UpdatedBy: input.ActorID,
			Note:      input.Note,
		})
		loaded.Status = input.Status
		if tracking := SanitizeTrackingID(input.TrackingID); tracking != "" {
			loaded.TrackingID = tracking
		}

		if input.Status == enums.OrderStatusConfirmed {
			if _, err := s.ledgers.PostSale(ctx, tx, ledger.PostSaleInput{
				OrderID:       loaded.ID,
				SellerID:      loaded.SellerID,
				Amount:        loaded.TotalAmount,
				PaymentMethod: loaded.PaymentMethod,
				ConfirmedAt:   now,
			}); err != nil {
				return err
			}
		}

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, order, input.ActorID)
	return order, nil
}

// ConfirmCOD lets the buyer confirm a pending cash-on-delivery order, which
// recognizes its revenue in the seller ledger.
func (s *service) ConfirmCOD(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
		if loaded.PaymentMethod != enums.PaymentMethodCOD {
			return pkgerrors.New(pkgerrors.CodeValidation, "order is not cash on delivery")
		}
		if loaded.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already confirmed or beyond")
		}

		now := time.Now().UTC()
		loaded.StatusHistory = append(loaded.StatusHistory, types.StatusChange{
			Status:    enums.OrderStatusConfirmed,
			Timestamp: now,
			UpdatedBy: buyerID,
			Note:      "cod order confirmed by buyer",
		})
		loaded.Status = enums.OrderStatusConfirmed

		if _, err := s.ledgers.PostSale(ctx, tx, ledger.PostSaleInput{
			OrderID:       loaded.ID,
			SellerID:      loaded.SellerID,
			Amount:        loaded.TotalAmount,
			PaymentMethod: loaded.PaymentMethod,
			ConfirmedAt:   now,
		}); err != nil {
			return err
		}

		if err := repo.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, order, buyerID)
	return order, nil
}

// Get returns the order when the actor is its buyer, its seller, or an admin.
func (s *service) Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.MemberRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if role != enums.MemberRoleAdmin && order.BuyerID != actorID && order.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) publishStatusChange(ctx context.Context, order *models.Order, actorID uuid.UUID) {
	if s.events == nil || order == nil {
		return
	}
	event := StatusChangedEvent{
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		SellerID:      order.SellerID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		ChangedBy:     actorID,
		ChangedAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logg.Error(ctx, "marshal order status event", err)
		return
	}
	attrs := map[string]string{
		"event_type": "order.status_changed",
		"status":     string(order.Status),
	}
	if err := s.events.PublishOrderEvent(ctx, data, attrs); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "publish order status event failed")
	}
}
