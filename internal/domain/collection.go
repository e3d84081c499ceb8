package domain

import (
	"time"
)

// CollectionPolicy is the per-collection configuration read by every product
// module at creation time. One row per verified collection mint, owned by the
// collection authority.
type CollectionPolicy struct {
	Mint          string    `gorm:"column:mint;primaryKey" json:"mint"`
	Authority     string    `gorm:"column:authority;not null" json:"authority"`
	LoanEnabled   bool      `gorm:"column:loan_enabled;not null;default:true" json:"loan_enabled"`
	LoanFeeBps    int64     `gorm:"column:loan_fee_bps;not null;default:0" json:"loan_fee_bps"`
	OptionEnabled bool      `gorm:"column:option_enabled;not null;default:true" json:"option_enabled"`
	OptionFeeBps  int64     `gorm:"column:option_fee_bps;not null;default:0" json:"option_fee_bps"`
	RentalEnabled bool      `gorm:"column:rental_enabled;not null;default:true" json:"rental_enabled"`
	RentalFeeBps  int64     `gorm:"column:rental_fee_bps;not null;default:0" json:"rental_fee_bps"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (CollectionPolicy) TableName() string {
	return "CollectionPolicies"
}

// Enabled reports whether the given product kind may open positions.
func (p *CollectionPolicy) Enabled(kind ProductKind) bool {
	switch kind {
	case ProductLoan:
		return p.LoanEnabled
	case ProductCallOption:
		return p.OptionEnabled
	case ProductRental:
		return p.RentalEnabled
	}
	return false
}

// FeeBps returns the protocol fee for the given product kind.
func (p *CollectionPolicy) FeeBps(kind ProductKind) int64 {
	switch kind {
	case ProductLoan:
		return p.LoanFeeBps
	case ProductCallOption:
		return p.OptionFeeBps
	case ProductRental:
		return p.RentalFeeBps
	}
	return 0
}

// ValidateFees rejects any fee outside [0, 10000].
func (p *CollectionPolicy) ValidateFees() error {
	for _, bps := range []int64{p.LoanFeeBps, p.OptionFeeBps, p.RentalFeeBps} {
		if bps < 0 || bps > 10_000 {
			return ErrFeeOutOfRange
		}
	}
	return nil
}
