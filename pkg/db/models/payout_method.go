package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazaarlane/bazaarlane-backend/pkg/enums"
)

// PayoutMethod is one payout destination registered by a seller. At most one
// method per seller carries IsDefault at any time.
type PayoutMethod struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	Type          enums.PayoutMethodType `gorm:"column:type;type:text;not null"`
	BankName      *string                `gorm:"column:bank_name"`
	AccountNumber *string                `gorm:"column:account_number"`
	IFSCCode      *string                `gorm:"column:ifsc_code"`
	HolderName    *string                `gorm:"column:holder_name"`
	UPIID         *string                `gorm:"column:upi_id"`
	IsDefault     bool                   `gorm:"column:is_default;not null;default:false"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// Describe renders the human-readable snapshot stored on payout records.
func (p PayoutMethod) Describe() string {
	switch p.Type {
	case enums.PayoutMethodTypeBank:
		bank, last4 := "", ""
		if p.BankName != nil {
			bank = *p.BankName
		}
		if p.AccountNumber != nil && len(*p.AccountNumber) >= 4 {
			last4 = (*p.AccountNumber)[len(*p.AccountNumber)-4:]
		}
		return bank + " ****" + last4
	case enums.PayoutMethodTypeUPI:
		if p.UPIID != nil {
			return "UPI " + *p.UPIID
		}
	}
	return string(p.Type)
}
