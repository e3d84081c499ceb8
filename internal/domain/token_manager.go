package domain

import (
	"time"
)

// ProductKind identifies one of the three claim slots on a TokenManager.
type ProductKind string

const (
	ProductLoan       ProductKind = "loan"
	ProductCallOption ProductKind = "call_option"
	ProductRental     ProductKind = "rental"
)

// TokenManager is the custody ledger for one pledged mint: which products
// currently claim it and who holds redemption rights. It exists iff at least
// one flag is set or a listed position still references it, and for that
// lifetime it is the sole delegate and freeze authority over the deposit
// token account.
type TokenManager struct {
	Mint       string    `gorm:"column:mint;primaryKey" json:"mint"`
	Collection string    `gorm:"column:collection;not null;index" json:"collection"`
	Issuer     string    `gorm:"column:issuer;not null" json:"issuer"`
	Authority  *string   `gorm:"column:authority" json:"authority"`
	Loan       bool      `gorm:"column:loan;not null;default:false" json:"loan"`
	CallOption bool      `gorm:"column:call_option;not null;default:false" json:"call_option"`
	Rental     bool      `gorm:"column:rental;not null;default:false" json:"rental"`
	Escrowed   bool      `gorm:"column:escrowed;not null;default:false" json:"escrowed"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (TokenManager) TableName() string {
	return "TokenManagers"
}

// Flag reports whether the given product kind currently claims the mint.
func (m *TokenManager) Flag(kind ProductKind) bool {
	switch kind {
	case ProductLoan:
		return m.Loan
	case ProductCallOption:
		return m.CallOption
	case ProductRental:
		return m.Rental
	}
	return false
}

// SetFlag flips one claim slot. Transitions are explicit per kind; no other
// state is touched.
func (m *TokenManager) SetFlag(kind ProductKind, v bool) {
	switch kind {
	case ProductLoan:
		m.Loan = v
	case ProductCallOption:
		m.CallOption = v
	case ProductRental:
		m.Rental = v
	}
}

// AnyActive reports whether any product still claims the mint.
func (m *TokenManager) AnyActive() bool {
	return m.Loan || m.CallOption || m.Rental
}
