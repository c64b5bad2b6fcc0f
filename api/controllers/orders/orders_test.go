package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bazaarlane/bazaarlane-backend/api/middleware"
	internalorders "github.com/bazaarlane/bazaarlane-backend/internal/orders"
	"github.com/bazaarlane/bazaarlane-backend/internal/shipping"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
)

type stubOrdersService struct {
	transition func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error)
	confirmCOD func(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
	get        func(ctx context.Context, orderID, actorID uuid.UUID, role enums.MemberRole) (*models.Order, error)
}

func (s *stubOrdersService) Transition(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
	if s.transition != nil {
		return s.transition(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) ConfirmCOD(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if s.confirmCOD != nil {
		return s.confirmCOD(ctx, orderID, buyerID)
	}
	return &models.Order{}, nil
}

func (s *stubOrdersService) Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.MemberRole) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, orderID, actorID, role)
	}
	return &models.Order{}, nil
}

type stubShippingService struct {
	updateShipping func(ctx context.Context, input shipping.UpdateShippingInput) (*models.Order, error)
	updateDelivery func(ctx context.Context, input shipping.UpdateDeliveryInput) (*models.Order, error)
}

func (s *stubShippingService) UpdateShipping(ctx context.Context, input shipping.UpdateShippingInput) (*models.Order, error) {
	if s.updateShipping != nil {
		return s.updateShipping(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *stubShippingService) UpdateExpectedDelivery(ctx context.Context, input shipping.UpdateDeliveryInput) (*models.Order, error) {
	if s.updateDelivery != nil {
		return s.updateDelivery(ctx, input)
	}
	return &models.Order{}, nil
}

func seedActor(req *http.Request, actorID uuid.UUID, role enums.MemberRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), actorID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func newOrderRouter(svc internalorders.Service, shippingSvc shipping.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/orders/{orderId}", func(r chi.Router) {
		r.Get("/", Detail(svc, nil))
		r.Patch("/status", UpdateStatus(svc, nil))
		r.Post("/confirm-cod", ConfirmCOD(svc, nil))
		if shippingSvc != nil {
			r.Patch("/shipping", UpdateShipping(shippingSvc, nil))
			r.Patch("/expected-delivery", UpdateExpectedDelivery(shippingSvc, nil))
		}
	})
	return r
}

func TestUpdateStatusForwardsActorAndNormalizesStatus(t *testing.T) {
	orderID := uuid.New()
	sellerID := uuid.New()
	svc := &stubOrdersService{
		transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Status != enums.OrderStatusConfirmed {
				t.Fatalf("expected normalized status, got %q", input.Status)
			}
			if input.ActorID != sellerID || input.ActorRole != enums.MemberRoleSeller {
				t.Fatalf("actor not forwarded")
			}
			if input.Note != "stock checked" {
				t.Fatalf("unexpected note %q", input.Note)
			}
			return &models.Order{ID: orderID, Status: enums.OrderStatusConfirmed}, nil
		},
	}

	body := `{"status":" Confirmed ","note":"stock checked"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(body))
	req = seedActor(req, sellerID, enums.MemberRoleSeller)

	resp := httptest.NewRecorder()
	newOrderRouter(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status in response: %s", envelope.Data.Status)
	}
}

func TestUpdateStatusRequiresAuthenticatedUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"confirmed"}`))

	resp := httptest.NewRecorder()
	newOrderRouter(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUpdateStatusRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"confirmed","bogus":true}`))
	req = seedActor(req, uuid.New(), enums.MemberRoleSeller)

	resp := httptest.NewRecorder()
	newOrderRouter(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateStatusMapsStateConflict(t *testing.T) {
	svc := &stubOrdersService{
		transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered")
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"shipped"}`))
	req = seedActor(req, uuid.New(), enums.MemberRoleSeller)

	resp := httptest.NewRecorder()
	newOrderRouter(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "order already delivered" {
		t.Fatalf("unexpected error message %q", envelope.Error.Message)
	}
}

func TestConfirmCODPassesBuyer(t *testing.T) {
	orderID := uuid.New()
	buyerID := uuid.New()
	called := false
	svc := &stubOrdersService{
		confirmCOD: func(ctx context.Context, gotOrder, gotBuyer uuid.UUID) (*models.Order, error) {
			called = true
			if gotOrder != orderID || gotBuyer != buyerID {
				t.Fatalf("unexpected ids %s %s", gotOrder, gotBuyer)
			}
			return &models.Order{ID: orderID, Status: enums.OrderStatusConfirmed}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/confirm-cod", nil)
	req = seedActor(req, buyerID, enums.MemberRoleBuyer)

	resp := httptest.NewRecorder()
	newOrderRouter(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("service not invoked")
	}
}

func TestDetailRejectsMalformedOrderID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = seedActor(req, uuid.New(), enums.MemberRoleBuyer)

	resp := httptest.NewRecorder()
	newOrderRouter(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateShippingRequiresTrackingID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/shipping", strings.NewReader(`{"carrier":"fedex"}`))
	req = seedActor(req, uuid.New(), enums.MemberRoleSeller)

	resp := httptest.NewRecorder()
	newOrderRouter(&stubOrdersService{}, &stubShippingService{}).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateShippingLowercasesCarrier(t *testing.T) {
	orderID := uuid.New()
	sellerID := uuid.New()
	shippingSvc := &stubShippingService{
		updateShipping: func(ctx context.Context, input shipping.UpdateShippingInput) (*models.Order, error) {
			if input.Carrier != "fedex" {
				t.Fatalf("expected lowercased carrier, got %q", input.Carrier)
			}
			if input.TrackingID != "TRK-9" {
				t.Fatalf("unexpected tracking id %q", input.TrackingID)
			}
			return &models.Order{ID: orderID}, nil
		},
	}

	body := `{"carrier":" FedEx ","tracking_id":"TRK-9"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/shipping", strings.NewReader(body))
	req = seedActor(req, sellerID, enums.MemberRoleSeller)

	resp := httptest.NewRecorder()
	newOrderRouter(&stubOrdersService{}, shippingSvc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateExpectedDeliveryTrimsDate(t *testing.T) {
	orderID := uuid.New()
	shippingSvc := &stubShippingService{
		updateDelivery: func(ctx context.Context, input shipping.UpdateDeliveryInput) (*models.Order, error) {
			if input.Date != "2030-05-01" {
				t.Fatalf("unexpected date %q", input.Date)
			}
			return &models.Order{ID: orderID}, nil
		},
	}

	body := `{"expected_delivery":" 2030-05-01 "}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/expected-delivery", strings.NewReader(body))
	req = seedActor(req, uuid.New(), enums.MemberRoleSeller)

	resp := httptest.NewRecorder()
	newOrderRouter(&stubOrdersService{}, shippingSvc).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
