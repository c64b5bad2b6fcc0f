package ledger

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

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
	"github.com/bazaarlane/bazaarlane-backend/pkg/types"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ledgers := `
CREATE TABLE IF NOT EXISTS seller_ledgers (
  seller_id TEXT PRIMARY KEY,
  total_sales NUMERIC NOT NULL DEFAULT 0,
  cod NUMERIC NOT NULL DEFAULT 0,
  daily_stats TEXT,
  last_payout_date DATETIME,
  last_payout_amount NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	postings := `
CREATE TABLE IF NOT EXISTS ledger_postings (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  seller_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  confirmed_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ledgers).Error)
	require.NoError(t, db.Exec(postings).Error)
	return db
}

func newLedgerService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestServicePostSale_accumulatesBuckets(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	sellerID := uuid.New()
	confirmedAt := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC) // Monday

	posted, err := svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      sellerID,
		Amount:        decimal.NewFromInt(400),
		PaymentMethod: enums.PaymentMethodCOD,
		ConfirmedAt:   confirmedAt,
	})
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      sellerID,
		Amount:        decimal.NewFromInt(600),
		PaymentMethod: enums.PaymentMethodDigital,
		ConfirmedAt:   confirmedAt.Add(24 * time.Hour), // Tuesday
	})
	require.NoError(t, err)
	assert.True(t, posted)

	ledger, err := svc.AcquireForPayout(context.Background(), db, sellerID)
	require.NoError(t, err)
	assert.True(t, ledger.TotalSales.Equal(decimal.NewFromInt(1000)), "total sales %s", ledger.TotalSales)
	assert.True(t, ledger.COD.Equal(decimal.NewFromInt(400)), "cod %s", ledger.COD)
	assert.Equal(t, 2, ledger.DailyStats.TotalOrders())
	assert.Equal(t, 1, ledger.DailyStats.CODOrders())

	monday := ledger.DailyStats[types.BucketIndex(confirmedAt)]
	require.Len(t, monday.Orders, 1)
	assert.True(t, monday.Sales.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, enums.PaymentMethodCOD, monday.Orders[0].PaymentMethod)
}

func TestServicePostSale_exactlyOncePerOrder(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	sellerID := uuid.New()
	orderID := uuid.New()
	input := PostSaleInput{
		OrderID:       orderID,
		SellerID:      sellerID,
		Amount:        decimal.NewFromInt(250),
		PaymentMethod: enums.PaymentMethodCOD,
		ConfirmedAt:   time.Now().UTC(),
	}

	posted, err := svc.PostSale(context.Background(), db, input)
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = svc.PostSale(context.Background(), db, input)
	require.NoError(t, err)
	assert.False(t, posted, "repeat posting must be a no-op")

	ledger, err := svc.AcquireForPayout(context.Background(), db, sellerID)
	require.NoError(t, err)
	assert.True(t, ledger.TotalSales.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 1, ledger.DailyStats.TotalOrders())
}

func TestServicePostSale_rejectsInvalidInput(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	_, err := svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      uuid.Nil,
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.Error(t, err)

	_, err = svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      uuid.New(),
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: enums.PaymentMethod("cheque"),
	})
	require.Error(t, err)

	_, err = svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      uuid.New(),
		Amount:        decimal.NewFromInt(-5),
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.Error(t, err)
}

func TestServiceResetForPayout_zeroesAccruals(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	sellerID := uuid.New()
	_, err := svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      sellerID,
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: enums.PaymentMethodCOD,
		ConfirmedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	ledger, err := svc.AcquireForPayout(context.Background(), db, sellerID)
	require.NoError(t, err)

	payoutDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	earnings := decimal.NewFromInt(475)
	require.NoError(t, svc.ResetForPayout(context.Background(), db, ledger, payoutDate, earnings))

	reloaded, err := svc.AcquireForPayout(context.Background(), db, sellerID)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalSales.IsZero())
	assert.True(t, reloaded.COD.IsZero())
	assert.Equal(t, 0, reloaded.DailyStats.TotalOrders())
	require.NotNil(t, reloaded.LastPayoutDate)
	assert.True(t, payoutDate.Equal(*reloaded.LastPayoutDate))
	assert.True(t, reloaded.LastPayoutAmount.Equal(earnings))
}

func TestServiceSellersWithAccruals(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := newLedgerService(t, db)

	active := uuid.New()
	_, err := svc.PostSale(context.Background(), db, PostSaleInput{
		OrderID:       uuid.New(),
		SellerID:      active,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: enums.PaymentMethodDigital,
		ConfirmedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	// Seller with a ledger row but nothing accrued.
	idle, err := svc.AcquireForPayout(context.Background(), db, uuid.New())
	require.NoError(t, err)

	ids, err := svc.SellersWithAccruals(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, active, ids[0])
	assert.True(t, idle.TotalSales.IsZero())
}
