package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
)

func TestZeroedWeekHasSevenEmptyBuckets(t *testing.T) {
	week := ZeroedWeek()
	for i, bucket := range week {
		if bucket.Day != i {
			t.Fatalf("bucket %d carries day %d", i, bucket.Day)
		}
		if len(bucket.Orders) != 0 {
			t.Fatalf("bucket %d not empty", i)
		}
		if !bucket.Sales.IsZero() {
			t.Fatalf("bucket %d has non-zero sales %s", i, bucket.Sales)
		}
	}
	if !week.TotalSales().IsZero() || week.TotalOrders() != 0 {
		t.Fatal("zeroed week reports activity")
	}
}

func TestBucketIndexMapsSundayToZero(t *testing.T) {
	// 2026-08-30 is a Sunday.
	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if got := BucketIndex(sunday); got != 0 {
		t.Fatalf("expected Sunday bucket 0, got %d", got)
	}
	if got := BucketIndex(sunday.AddDate(0, 0, 6)); got != 6 {
		t.Fatalf("expected Saturday bucket 6, got %d", got)
	}
}

func TestWeekStatsCounters(t *testing.T) {
	week := ZeroedWeek()
	week[1].Orders = append(week[1].Orders,
		OrderRef{OrderID: uuid.New(), PaymentMethod: enums.PaymentMethodCOD, Amount: decimal.RequireFromString("400")},
		OrderRef{OrderID: uuid.New(), PaymentMethod: enums.PaymentMethodDigital, Amount: decimal.RequireFromString("600")},
	)
	week[1].Sales = decimal.RequireFromString("1000")
	week[4].Orders = append(week[4].Orders,
		OrderRef{OrderID: uuid.New(), PaymentMethod: enums.PaymentMethodCOD, Amount: decimal.RequireFromString("250")},
	)
	week[4].Sales = decimal.RequireFromString("250")

	if got := week.TotalSales(); !got.Equal(decimal.RequireFromString("1250")) {
		t.Fatalf("expected total sales 1250, got %s", got)
	}
	if got := week.TotalOrders(); got != 3 {
		t.Fatalf("expected 3 orders, got %d", got)
	}
	if got := week.CODOrders(); got != 2 {
		t.Fatalf("expected 2 cod orders, got %d", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	week := ZeroedWeek()
	week[2].Orders = append(week[2].Orders, OrderRef{OrderID: uuid.New(), Amount: decimal.RequireFromString("99")})
	week[2].Sales = decimal.RequireFromString("99")

	snapshot := week.Clone()
	week[2].Orders = append(week[2].Orders, OrderRef{OrderID: uuid.New(), Amount: decimal.RequireFromString("1")})
	week[2].Sales = decimal.RequireFromString("100")

	if len(snapshot[2].Orders) != 1 {
		t.Fatalf("snapshot mutated, has %d orders", len(snapshot[2].Orders))
	}
	if !snapshot[2].Sales.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("snapshot sales mutated: %s", snapshot[2].Sales)
	}
}
