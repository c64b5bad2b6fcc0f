package shipping

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bazaarlane/bazaarlane-backend/internal/orders"
	"github.com/bazaarlane/bazaarlane-backend/pkg/db/models"
	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	pkgerrors "github.com/bazaarlane/bazaarlane-backend/pkg/errors"
)

func setupShippingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  items TEXT,
  total_amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  status TEXT NOT NULL,
  status_history TEXT,
  carrier TEXT,
  tracking_id TEXT,
  shipped_at DATETIME,
  shipping_history TEXT,
  expected_delivery DATETIME,
  delivery_history TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newShippingService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(orders.NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func newShippingOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()

	order := &models.Order{
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		TotalAmount:   decimal.NewFromInt(300),
		PaymentMethod: enums.PaymentMethodDigital,
		Status:        enums.OrderStatusProcessing,
	}
	created, err := orders.NewRepository(db).Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestServiceUpdateShipping_recordsHistory(t *testing.T) {
	db := setupShippingTestDB(t)
	svc := newShippingService(t, db)

	order := newShippingOrder(t, db)

	updated, err := svc.UpdateShipping(context.Background(), UpdateShippingInput{
		OrderID:    order.ID,
		Carrier:    "delhivery",
		TrackingID: " DL-990 077 ",
		ActorID:    order.SellerID,
		ActorRole:  enums.MemberRoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CarrierDelhivery, updated.Carrier)
	assert.Equal(t, "DL-990077", updated.TrackingID)
	require.NotNil(t, updated.ShippedAt)
	require.Len(t, updated.ShippingHistory, 1)

	firstShippedAt := *updated.ShippedAt

	// A second update appends a new event and keeps the original ShippedAt.
	updated, err = svc.UpdateShipping(context.Background(), UpdateShippingInput{
		OrderID:    order.ID,
		Carrier:    "bluedart",
		TrackingID: "BD1234",
		ActorID:    order.SellerID,
		ActorRole:  enums.MemberRoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CarrierBlueDart, updated.Carrier)
	require.Len(t, updated.ShippingHistory, 2)
	require.NotNil(t, updated.ShippedAt)
	assert.True(t, firstShippedAt.Equal(*updated.ShippedAt))
	assert.Equal(t, enums.OrderStatusProcessing, updated.Status, "shipping update must not change status")
}

func TestServiceUpdateShipping_defaultsAbsentCarrier(t *testing.T) {
	db := setupShippingTestDB(t)
	svc := newShippingService(t, db)

	order := newShippingOrder(t, db)

	updated, err := svc.UpdateShipping(context.Background(), UpdateShippingInput{
		OrderID:    order.ID,
		TrackingID: "TRK01",
		ActorID:    order.SellerID,
		ActorRole:  enums.MemberRoleSeller,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CarrierOther, updated.Carrier)
}

func TestServiceUpdateShipping_validation(t *testing.T) {
	db := setupShippingTestDB(t)
	svc := newShippingService(t, db)

	order := newShippingOrder(t, db)

	_, err := svc.UpdateShipping(context.Background(), UpdateShippingInput{
		OrderID:    order.ID,
		Carrier:    "pigeon",
		TrackingID: "TRK01",
		ActorID:    order.SellerID,
		ActorRole:  enums.MemberRoleSeller,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateShipping(context.Background(), UpdateShippingInput{
		OrderID:    order.ID,
		TrackingID: " @#$% ",
		ActorID:    order.SellerID,
		ActorRole:  enums.MemberRoleSeller,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateShipping(context.Background(), UpdateShippingInput{
		OrderID:    order.ID,
		TrackingID: "TRK01",
		ActorID:    uuid.New(),
		ActorRole:  enums.MemberRoleSeller,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestServiceUpdateExpectedDelivery_appendsChange(t *testing.T) {
	db := setupShippingTestDB(t)
	svc := newShippingService(t, db)

	order := newShippingOrder(t, db)

	first := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	updated, err := svc.UpdateExpectedDelivery(context.Background(), UpdateDeliveryInput{
		OrderID:   order.ID,
		Date:      first,
		ActorID:   order.SellerID,
		ActorRole: enums.MemberRoleSeller,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ExpectedDelivery)
	require.Len(t, updated.DeliveryHistory, 1)
	assert.Nil(t, updated.DeliveryHistory[0].PreviousDate)

	second := time.Now().UTC().AddDate(0, 0, 5).Format("2006-01-02")
	updated, err = svc.UpdateExpectedDelivery(context.Background(), UpdateDeliveryInput{
		OrderID:   order.ID,
		Date:      second,
		ActorID:   order.SellerID,
		ActorRole: enums.MemberRoleSeller,
	})
	require.NoError(t, err)
	require.Len(t, updated.DeliveryHistory, 2)
	require.NotNil(t, updated.DeliveryHistory[1].PreviousDate)
}

func TestServiceUpdateExpectedDelivery_rejectsBadDates(t *testing.T) {
	db := setupShippingTestDB(t)
	svc := newShippingService(t, db)

	order := newShippingOrder(t, db)

	_, err := svc.UpdateExpectedDelivery(context.Background(), UpdateDeliveryInput{
		OrderID:   order.ID,
		Date:      "next tuesday",
		ActorID:   order.SellerID,
		ActorRole: enums.MemberRoleSeller,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	past := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	_, err = svc.UpdateExpectedDelivery(context.Background(), UpdateDeliveryInput{
		OrderID:   order.ID,
		Date:      past,
		ActorID:   order.SellerID,
		ActorRole: enums.MemberRoleSeller,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
