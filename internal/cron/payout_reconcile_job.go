package cron

import (
	"context"
	"fmt"

	"github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

// PayoutReconcileJobParams configures the weekly payout sweep.
type PayoutReconcileJobParams struct {
	Logger *logger.Logger
	Engine *payouts.Engine
}

type payoutReconcileJob struct {
	logg   *logger.Logger
	engine *payouts.Engine
}

// NewPayoutReconcileJob wraps the payout engine as a scheduled job.
func NewPayoutReconcileJob(params PayoutReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("payout engine required")
	}
	return &payoutReconcileJob{logg: params.Logger, engine: params.Engine}, nil
}

func (j *payoutReconcileJob) Name() string { return "payout-reconcile" }

func (j *payoutReconcileJob) Run(ctx context.Context) error {
	summary, err := j.engine.Run(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"processed_sellers": summary.ProcessedSellers,
		"skipped_sellers":   summary.SkippedSellers,
		"failed_sellers":    summary.FailedSellers,
		"total_payout":      summary.TotalPayoutAmount.String(),
	})
	if err != nil {
		j.logg.Error(logCtx, "payout reconciliation finished with failures", err)
		return err
	}
	j.logg.Info(logCtx, "payout reconciliation finished")
	return nil
}
