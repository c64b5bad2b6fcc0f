package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
)

// OrderRef captures one order's contribution recorded inside a day bucket.
type OrderRef struct {
	OrderID       uuid.UUID           `json:"order_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal     `json:"amount"`
}

// DayBucket accumulates a single weekday's confirmed orders and sales.
type DayBucket struct {
	Day    int             `json:"day"`
	Orders []OrderRef      `json:"orders"`
	Sales  decimal.Decimal `json:"sales"`
}

// WeekStats is the fixed seven-bucket week, indexed 0=Sunday..6=Saturday.
type WeekStats [7]DayBucket

// ZeroedWeek builds a week of empty buckets with zero sales.
func ZeroedWeek() WeekStats {
	var week WeekStats
	for i := range week {
		week[i] = DayBucket{
			Day:    i,
			Orders: []OrderRef{},
			Sales:  decimal.Zero,
		}
	}
	return week
}

// BucketIndex maps a timestamp to its weekday bucket in local calendar terms.
func BucketIndex(t time.Time) int {
	return int(t.Weekday())
}

// TotalSales sums the sales recorded across all buckets.
func (w WeekStats) TotalSales() decimal.Decimal {
	total := decimal.Zero
	for i := range w {
		total = total.Add(w[i].Sales)
	}
	return total
}

// TotalOrders counts the orders recorded across all buckets.
func (w WeekStats) TotalOrders() int {
	count := 0
	for i := range w {
		count += len(w[i].Orders)
	}
	return count
}

// CODOrders counts the recorded orders settled cash-on-delivery.
func (w WeekStats) CODOrders() int {
	count := 0
	for i := range w {
		for _, ref := range w[i].Orders {
			if ref.PaymentMethod == enums.PaymentMethodCOD {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy safe to snapshot into immutable records.
func (w WeekStats) Clone() WeekStats {
	var out WeekStats
	for i := range w {
		orders := make([]OrderRef, len(w[i].Orders))
		copy(orders, w[i].Orders)
		out[i] = DayBucket{
			Day:    w[i].Day,
			Orders: orders,
			Sales:  w[i].Sales,
		}
	}
	return out
}
