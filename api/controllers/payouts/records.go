package payouts

import (
	"net/http"

	"github.com/bazaarlane/bazaarlane-backend/api/responses"
	internalpayouts "github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

// ListRecords returns the seller's payout history, newest first.
func ListRecords(repo internalpayouts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts repository unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := repo.ListBySeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payout records"))
			return
		}
		responses.WriteSuccess(w, records)
	}
}
