package payouts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/api/middleware"
	"github.com/bazaarlane/bazaarlane-backend/internal/payoutmethods"
	internalpayouts "github.com/bazaarlane/bazaarlane-backend/internal/payouts"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

type stubMethodsService struct {
	add       func(ctx context.Context, sellerID uuid.UUID, input payoutmethods.AddMethodInput) (*models.PayoutMethod, error)
	setActive func(ctx context.Context, sellerID, methodID uuid.UUID) (*models.PayoutMethod, error)
	del       func(ctx context.Context, sellerID, methodID uuid.UUID) error
	list      func(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutMethod, error)
}

func (s *stubMethodsService) Add(ctx context.Context, sellerID uuid.UUID, input payoutmethods.AddMethodInput) (*models.PayoutMethod, error) {
	if s.add != nil {
		return s.add(ctx, sellerID, input)
	}
	return &models.PayoutMethod{}, nil
}

func (s *stubMethodsService) SetActive(ctx context.Context, sellerID, methodID uuid.UUID) (*models.PayoutMethod, error) {
	if s.setActive != nil {
		return s.setActive(ctx, sellerID, methodID)
	}
	return &models.PayoutMethod{}, nil
}

func (s *stubMethodsService) Delete(ctx context.Context, sellerID, methodID uuid.UUID) error {
	if s.del != nil {
		return s.del(ctx, sellerID, methodID)
	}
	return nil
}

func (s *stubMethodsService) List(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutMethod, error) {
	if s.list != nil {
		return s.list(ctx, sellerID)
	}
	return nil, nil
}

func (s *stubMethodsService) ActiveMethod(ctx context.Context, sellerID uuid.UUID) (*models.PayoutMethod, error) {
	return nil, nil
}

type stubRecordsRepo struct {
	listBySeller func(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutRecord, error)
}

func (s *stubRecordsRepo) WithTx(tx *gorm.DB) internalpayouts.Repository {
	return s
}

func (s *stubRecordsRepo) CreateRecord(ctx context.Context, record *models.PayoutRecord) (*models.PayoutRecord, error) {
	return record, nil
}

func (s *stubRecordsRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutRecord, error) {
	if s.listBySeller != nil {
		return s.listBySeller(ctx, sellerID)
	}
	return nil, nil
}

type emptyLedgers struct{}

func (emptyLedgers) SellersWithAccruals(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (emptyLedgers) AcquireForPayout(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*models.SellerLedger, error) {
	return nil, gorm.ErrRecordNotFound
}

func (emptyLedgers) ResetForPayout(ctx context.Context, tx *gorm.DB, ledger *models.SellerLedger, payoutDate time.Time, earnings decimal.Decimal) error {
	return nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func seedSeller(req *http.Request, sellerID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), sellerID.String())
	ctx = middleware.WithRole(ctx, string(enums.MemberRoleSeller))
	return req.WithContext(ctx)
}

func newMethodsRouter(svc payoutmethods.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/payout-methods", func(r chi.Router) {
		r.Get("/", ListMethods(svc, nil))
		r.Post("/", AddMethod(svc, nil))
		r.Patch("/{methodId}/activate", SetActiveMethod(svc, nil))
		r.Delete("/{methodId}", DeleteMethod(svc, nil))
	})
	return r
}

func idleEngine(t *testing.T) *internalpayouts.Engine {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	engine, err := internalpayouts.NewEngine(internalpayouts.EngineParams{
		Ledgers: emptyLedgers{},
		Methods: &stubMethodsService{},
		Repo:    &stubRecordsRepo{},
		Tx:      noopTx{},
		Logger:  logg,
		FeeRate: decimal.RequireFromString("0.05"),
	})
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine
}

func TestAddMethodCreatesForSeller(t *testing.T) {
	sellerID := uuid.New()
	svc := &stubMethodsService{
		add: func(ctx context.Context, gotSeller uuid.UUID, input payoutmethods.AddMethodInput) (*models.PayoutMethod, error) {
			if gotSeller != sellerID {
				t.Fatalf("unexpected seller id %s", gotSeller)
			}
			if input.Type != "upi" || input.UPIID != "shop@upi" {
				t.Fatalf("input not forwarded: %+v", input)
			}
			return &models.PayoutMethod{ID: uuid.New(), SellerID: sellerID, Type: enums.PayoutMethodTypeUPI, IsDefault: true}, nil
		},
	}

	body := `{"type":"upi","upi_id":"shop@upi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payout-methods", strings.NewReader(body))
	req = seedSeller(req, sellerID)

	resp := httptest.NewRecorder()
	newMethodsRouter(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddMethodRejectsUnknownType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payout-methods", strings.NewReader(`{"type":"paypal"}`))
	req = seedSeller(req, uuid.New())

	resp := httptest.NewRecorder()
	newMethodsRouter(&stubMethodsService{}).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMethodsRequireSellerRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payout-methods", nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.MemberRoleBuyer))
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	newMethodsRouter(&stubMethodsService{}).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestDeleteMethodSurfacesConflict(t *testing.T) {
	svc := &stubMethodsService{
		del: func(ctx context.Context, sellerID, methodID uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "set another payout method as default before deleting this one")
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/payout-methods/"+uuid.NewString(), nil)
	req = seedSeller(req, uuid.New())

	resp := httptest.NewRecorder()
	newMethodsRouter(svc).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestSetActiveRejectsMalformedMethodID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/payout-methods/not-a-uuid/activate", nil)
	req = seedSeller(req, uuid.New())

	resp := httptest.NewRecorder()
	newMethodsRouter(&stubMethodsService{}).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRunReconciliationRejectsBadKey(t *testing.T) {
	handler := RunReconciliation(idleEngine(t), "topsecret", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts/run", nil)
	req.Header.Set("X-Payout-Key", "wrong")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRunReconciliationRejectsWhenKeyUnconfigured(t *testing.T) {
	handler := RunReconciliation(idleEngine(t), "", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts/run", nil)
	req.Header.Set("X-Payout-Key", "")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRunReconciliationReturnsSummary(t *testing.T) {
	handler := RunReconciliation(idleEngine(t), "topsecret", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts/run", nil)
	req.Header.Set("X-Payout-Key", "topsecret")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data internalpayouts.RunSummary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ProcessedSellers != 0 || envelope.Data.FailedSellers != 0 {
		t.Fatalf("expected empty summary, got %+v", envelope.Data)
	}
}

func TestListRecordsReturnsSellerHistory(t *testing.T) {
	sellerID := uuid.New()
	repo := &stubRecordsRepo{
		listBySeller: func(ctx context.Context, gotSeller uuid.UUID) ([]models.PayoutRecord, error) {
			if gotSeller != sellerID {
				t.Fatalf("unexpected seller id %s", gotSeller)
			}
			return []models.PayoutRecord{
				{ID: uuid.New(), SellerID: sellerID, TotalSales: decimal.RequireFromString("1000")},
			}, nil
		},
	}

	handler := ListRecords(repo, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payouts/records", nil)
	req = seedSeller(req, sellerID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data []models.PayoutRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || !envelope.Data[0].TotalSales.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("unexpected records in response: %+v", envelope.Data)
	}
}
