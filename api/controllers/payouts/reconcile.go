package payouts

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/bazaarlane/bazaarlane-backend/api/responses"
	internalpayouts "github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

const payoutKeyHeader = "X-Payout-Key"

// RunReconciliation triggers a payout sweep. It is gated by a static shared
// secret rather than a bearer token because the caller is the scheduler, not
// a user. Per-seller failures are reported in the summary, not as a request
// failure.
func RunReconciliation(engine *internalpayouts.Engine, secretKey string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout engine unavailable"))
			return
		}

		provided := strings.TrimSpace(r.Header.Get(payoutKeyHeader))
		if secretKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secretKey)) != 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid payout key"))
			return
		}

		summary, err := engine.Run(r.Context())
		if err != nil && summary.ProcessedSellers == 0 && summary.SkippedSellers == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payout reconciliation failed"))
			return
		}
		if err != nil {
			logg.Error(r.Context(), "payout reconciliation finished with failures", err)
		}
		responses.WriteSuccess(w, summary)
	}
}
