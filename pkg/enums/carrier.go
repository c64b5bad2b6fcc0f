package enums

import "fmt"

// Carrier identifies the shipping carrier attached to an order.
type Carrier string

const (
	CarrierDelhivery   Carrier = "delhivery"
	CarrierBlueDart    Carrier = "bluedart"
	CarrierDTDC        Carrier = "dtdc"
	CarrierEcomExpress Carrier = "ecom_express"
	CarrierIndiaPost   Carrier = "india_post"
	CarrierFedEx       Carrier = "fedex"
	CarrierOther       Carrier = "other"
)

var validCarriers = []Carrier{
	CarrierDelhivery,
	CarrierBlueDart,
	CarrierDTDC,
	CarrierEcomExpress,
	CarrierIndiaPost,
	CarrierFedEx,
	CarrierOther,
}

// String implements fmt.Stringer.
func (c Carrier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Carrier.
func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCarrier converts raw input into a Carrier. Empty input maps to CarrierOther.
func ParseCarrier(value string) (Carrier, error) {
	if value == "" {
		return CarrierOther, nil
	}
	for _, candidate := range validCarriers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid carrier %q", value)
}
