package payouts

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bazaarlane/bazaarlane-backend/api/middleware"
	"github.com/bazaarlane/bazaarlane-backend/api/responses"
	"github.com/bazaarlane/bazaarlane-backend/api/validators"
	"github.com/bazaarlane/bazaarlane-backend/internal/payoutmethods"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

type addMethodRequest struct {
	Type          string `json:"type" validate:"required,oneof=bank upi"`
	BankName      string `json:"bank_name,omitempty" validate:"max=100"`
	AccountNumber string `json:"account_number,omitempty" validate:"max=30"`
	IFSCCode      string `json:"ifsc_code,omitempty" validate:"max=20"`
	HolderName    string `json:"holder_name,omitempty" validate:"max=100"`
	UPIID         string `json:"upi_id,omitempty" validate:"max=100"`
}

// AddMethod registers a payout destination for the authenticated seller.
func AddMethod(svc payoutmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout methods service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.Add(r.Context(), sellerID, payoutmethods.AddMethodInput{
			Type:          payload.Type,
			BankName:      payload.BankName,
			AccountNumber: payload.AccountNumber,
			IFSCCode:      payload.IFSCCode,
			HolderName:    payload.HolderName,
			UPIID:         payload.UPIID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, method)
	}
}

// ListMethods returns the seller's registered payout destinations.
func ListMethods(svc payoutmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout methods service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.List(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

// SetActiveMethod makes the given payout method the seller's default.
func SetActiveMethod(svc payoutmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout methods service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := parseMethodID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.SetActive(r.Context(), sellerID, methodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, method)
	}
}

// DeleteMethod removes a payout method, guarding the default-with-alternatives case.
func DeleteMethod(svc payoutmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout methods service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := parseMethodID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), sellerID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func sellerFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	role := enums.MemberRole(middleware.RoleFromContext(r.Context()))
	if role != enums.MemberRoleSeller && role != enums.MemberRoleAdmin {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context required")
	}
	sellerID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return sellerID, nil
}

func parseMethodID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "methodId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "method id is required")
	}
	methodID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method id")
	}
	return methodID, nil
}
