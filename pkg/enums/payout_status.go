package enums

import "fmt"

// PayoutStatus reflects whether a payout record reached a payable destination.
type PayoutStatus string

const (
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusPending   PayoutStatus = "pending"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusCompleted,
	PayoutStatusPending,
}

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
