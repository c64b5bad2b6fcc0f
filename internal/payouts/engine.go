package payouts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

const pendingMethodNote = "no payout method on file"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerManager interface {
	SellersWithAccruals(ctx context.Context) ([]uuid.UUID, error)
	AcquireForPayout(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*models.SellerLedger, error)
	ResetForPayout(ctx context.Context, tx *gorm.DB, ledger *models.SellerLedger, payoutDate time.Time, earnings decimal.Decimal) error
}

type methodResolver interface {
	ActiveMethod(ctx context.Context, sellerID uuid.UUID) (*models.PayoutMethod, error)
}

type eventPublisher interface {
	PublishPayoutEvent(ctx context.Context, data []byte, attrs map[string]string) error
}

// RunSummary reports the outcome of one reconciliation sweep.
type RunSummary struct {
	ProcessedSellers  int             `json:"processed_sellers"`
	SkippedSellers    int             `json:"skipped_sellers"`
	FailedSellers     int             `json:"failed_sellers"`
	TotalPayoutAmount decimal.Decimal `json:"total_payout_amount"`
}

// PayoutCompletedEvent is published after a seller's payout commits.
type PayoutCompletedEvent struct {
	SellerID      uuid.UUID          `json:"seller_id"`
	TransactionID string             `json:"transaction_id"`
	Earnings      decimal.Decimal    `json:"earnings"`
	PlatformFee   decimal.Decimal    `json:"platform_fee"`
	Status        enums.PayoutStatus `json:"status"`
	Date          time.Time          `json:"date"`
}

// EngineParams collects the engine's dependencies and tuning knobs.
type EngineParams struct {
	Ledgers ledgerManager
	Methods methodResolver
	Repo    Repository
	Tx      txRunner
	Events  eventPublisher
	Logger  *logger.Logger
	FeeRate decimal.Decimal
	Period  time.Duration
	Now     func() time.Time
}

// Engine drains seller ledgers into immutable payout records. Each seller is
// reconciled in its own transaction so one failure never rolls back another
// seller's payout; failed sellers keep their accruals and are retried on the
// next run. Orders confirmed while a run is in flight may land in either this
// cycle or the next one, which is the accepted weekly-cutoff behavior.
type Engine struct {
	ledgers ledgerManager
	methods methodResolver
	repo    Repository
	tx      txRunner
	events  eventPublisher
	logg    *logger.Logger
	feeRate decimal.Decimal
	period  time.Duration
	now     func() time.Time
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Ledgers == nil {
		return nil, fmt.Errorf("ledger manager required")
	}
	if params.Methods == nil {
		return nil, fmt.Errorf("method resolver required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.FeeRate.IsNegative() || params.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be in [0, 1)")
	}
	if params.Period <= 0 {
		params.Period = 7 * 24 * time.Hour
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Engine{
		ledgers: params.Ledgers,
		methods: params.Methods,
		repo:    params.Repo,
		tx:      params.Tx,
		events:  params.Events,
		logg:    params.Logger,
		feeRate: params.FeeRate,
		period:  params.Period,
		now:     params.Now,
	}, nil
}

// Run sweeps every seller carrying accrued sales. The summary is always
// returned, alongside the accumulated per-seller errors if any occurred.
func (e *Engine) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{TotalPayoutAmount: decimal.Zero}

	sellers, err := e.ledgers.SellersWithAccruals(ctx)
	if err != nil {
		return summary, err
	}

	var errs error
	for _, sellerID := range sellers {
		record, err := e.reconcileSeller(ctx, sellerID)
		if err != nil {
			summary.FailedSellers++
			errs = multierr.Append(errs, fmt.Errorf("seller %s: %w", sellerID, err))
			e.logg.Error(e.logg.WithSellerID(ctx, sellerID.String()), "seller payout failed, will retry next run", err)
			continue
		}
		if record == nil {
			summary.SkippedSellers++
			continue
		}
		summary.ProcessedSellers++
		summary.TotalPayoutAmount = summary.TotalPayoutAmount.Add(record.Earnings)
		e.publishPayout(ctx, record)
	}
	return summary, errs
}

// reconcileSeller computes and persists one seller's payout, then resets the
// ledger in the same transaction. A nil record with nil error means the
// seller had nothing accrued by the time the row was locked.
func (e *Engine) reconcileSeller(ctx context.Context, sellerID uuid.UUID) (*models.PayoutRecord, error) {
	var record *models.PayoutRecord

	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger, err := e.ledgers.AcquireForPayout(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		// Another run may have drained this ledger between the listing and
		// the row lock.
		if !ledger.TotalSales.IsPositive() {
			return nil
		}

		now := e.now().UTC()
		totalSales := ledger.TotalSales
		fee := totalSales.Mul(e.feeRate).Round(2)
		earnings := totalSales.Sub(fee)
		codAmount := ledger.COD
		digitalAmount := totalSales.Sub(codAmount)
		codTx := ledger.DailyStats.CODOrders()
		totalOrders := ledger.DailyStats.TotalOrders()

		status := enums.PayoutStatusCompleted
		methodDesc := pendingMethodNote
		method, err := e.methods.ActiveMethod(ctx, sellerID)
		if err != nil {
			return err
		}
		if method == nil {
			status = enums.PayoutStatusPending
		} else {
			methodDesc = method.Describe()
		}

		created, err := e.repo.WithTx(tx).CreateRecord(ctx, &models.PayoutRecord{
			SellerID:            sellerID,
			TransactionID:       transactionID(sellerID, now),
			Date:                now,
			PeriodStart:         now.Add(-e.period),
			PeriodEnd:           now,
			NumberOfOrders:      totalOrders,
			CODTransactions:     codTx,
			DigitalTransactions: totalOrders - codTx,
			TotalSales:          totalSales,
			CODAmount:           codAmount,
			DigitalAmount:       digitalAmount,
			PlatformFee:         fee,
			Earnings:            earnings,
			Method:              methodDesc,
			Status:              status,
			DailyBreakdown:      ledger.DailyStats.Clone(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout record")
		}

		if err := e.ledgers.ResetForPayout(ctx, tx, ledger, now, earnings); err != nil {
			return err
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (e *Engine) publishPayout(ctx context.Context, record *models.PayoutRecord) {
	if e.events == nil || record == nil {
		return
	}
	data, err := json.Marshal(PayoutCompletedEvent{
		SellerID:      record.SellerID,
		TransactionID: record.TransactionID,
		Earnings:      record.Earnings,
		PlatformFee:   record.PlatformFee,
		Status:        record.Status,
		Date:          record.Date,
	})
	if err != nil {
		e.logg.Error(ctx, "marshal payout event", err)
		return
	}
	attrs := map[string]string{
		"event_type": "payout.completed",
		"status":     string(record.Status),
	}
	if err := e.events.PublishPayoutEvent(ctx, data, attrs); err != nil {
		e.logg.Warn(e.logg.WithSellerID(ctx, record.SellerID.String()), "publish payout event failed")
	}
}

func transactionID(sellerID uuid.UUID, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(sellerID.String(), "-", "")[:8])
	return fmt.Sprintf("PAY-%s-%s", at.Format("20060102150405"), suffix)
}
