package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/pkg/db"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

// PostSaleInput carries one revenue-recognized order into the seller ledger.
type PostSaleInput struct {
	OrderID       uuid.UUID
	SellerID      uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod enums.PaymentMethod
	ConfirmedAt   time.Time
}

// Service maintains seller weekly ledgers. PostSale and ResetForPayout run
// inside a caller-provided transaction so ledger mutations commit atomically
// with the order or payout write that triggered them.
type Service interface {
	PostSale(ctx context.Context, tx *gorm.DB, input PostSaleInput) (bool, error)
	AcquireForPayout(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*models.SellerLedger, error)
	ResetForPayout(ctx context.Context, tx *gorm.DB, ledger *models.SellerLedger, payoutDate time.Time, earnings decimal.Decimal) error
	SellersWithAccruals(ctx context.Context) ([]uuid.UUID, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	return &service{repo: repo}, nil
}

// PostSale adds one confirmed order to the seller's running totals and the
// matching weekday bucket. The posting table's unique order id makes this
// exactly-once: a repeat call for the same order is a silent no-op. The
// returned bool reports whether this call recorded the sale.
func (s *service) PostSale(ctx context.Context, tx *gorm.DB, input PostSaleInput) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "ledger posting requires a transaction")
	}
	if input.OrderID == uuid.Nil || input.SellerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id and seller id are required")
	}
	if !input.PaymentMethod.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.Amount.IsNegative() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "sale amount cannot be negative")
	}
	if input.ConfirmedAt.IsZero() {
		input.ConfirmedAt = time.Now()
	}

	repo := s.repo.WithTx(tx)

	posting := &models.LedgerPosting{
		OrderID:       input.OrderID,
		SellerID:      input.SellerID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		ConfirmedAt:   input.ConfirmedAt,
	}
	if err := repo.CreatePosting(ctx, posting); err != nil {
		if db.IsUniqueViolation(err, "uq_ledger_postings_order_id") {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording ledger posting")
	}

	ledger, err := repo.FindForUpdate(ctx, input.SellerID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading seller ledger")
	}

	ledger.TotalSales = ledger.TotalSales.Add(input.Amount)
	if input.PaymentMethod == enums.PaymentMethodCOD {
		ledger.COD = ledger.COD.Add(input.Amount)
	}

	idx := types.BucketIndex(input.ConfirmedAt)
	bucket := &ledger.DailyStats[idx]
	bucket.Day = idx
	bucket.Sales = bucket.Sales.Add(input.Amount)
	bucket.Orders = append(bucket.Orders, types.OrderRef{
		OrderID:       input.OrderID,
		PaymentMethod: input.PaymentMethod,
		Amount:        input.Amount,
	})

	if err := checkConservation(ledger); err != nil {
		return false, err
	}

	if err := repo.Save(ctx, ledger); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving seller ledger")
	}
	return true, nil
}

// AcquireForPayout locks and returns the seller's ledger inside tx.
func (s *service) AcquireForPayout(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*models.SellerLedger, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger acquisition requires a transaction")
	}
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	ledger, err := s.repo.WithTx(tx).FindForUpdate(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading seller ledger")
	}
	return ledger, nil
}

// ResetForPayout zeroes the accrual fields and stamps the payout marker. The
// caller commits this in the same transaction as the payout record insert so
// a seller is never paid without a reset or reset without a payout.
func (s *service) ResetForPayout(ctx context.Context, tx *gorm.DB, ledger *models.SellerLedger, payoutDate time.Time, earnings decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "ledger reset requires a transaction")
	}
	if ledger == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "ledger is required")
	}

	ledger.TotalSales = decimal.Zero
	ledger.COD = decimal.Zero
	ledger.DailyStats = types.ZeroedWeek()
	date := payoutDate
	ledger.LastPayoutDate = &date
	ledger.LastPayoutAmount = earnings

	if err := s.repo.WithTx(tx).Save(ctx, ledger); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resetting seller ledger")
	}
	return nil
}

func (s *service) SellersWithAccruals(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.SellerIDsWithSales(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sellers with accruals")
	}
	return ids, nil
}

func checkConservation(ledger *models.SellerLedger) error {
	if !ledger.DailyStats.TotalSales().Equal(ledger.TotalSales) {
		return pkgerrors.New(pkgerrors.CodeInternal, "ledger buckets out of sync with total sales")
	}
	if ledger.COD.GreaterThan(ledger.TotalSales) {
		return pkgerrors.New(pkgerrors.CodeInternal, "ledger cod exceeds total sales")
	}
	return nil
}
