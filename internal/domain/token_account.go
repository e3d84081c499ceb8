package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenAccount mirrors an SPL token account for a non-fungible mint: at most
// one unit, an optional delegate and a frozen flag. The custody gateway is the
// only writer.
type TokenAccount struct {
	AccountID       uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	Owner           string    `gorm:"column:owner;not null;uniqueIndex:idx_owner_mint" json:"owner"`
	Mint            string    `gorm:"column:mint;not null;uniqueIndex:idx_owner_mint" json:"mint"`
	Amount          int64     `gorm:"column:amount;not null;default:0" json:"amount"`
	Delegate        *string   `gorm:"column:delegate" json:"delegate"`
	DelegatedAmount int64     `gorm:"column:delegated_amount;not null;default:0" json:"delegated_amount"`
	Frozen          bool      `gorm:"column:frozen;not null;default:false" json:"frozen"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (TokenAccount) TableName() string {
	return "TokenAccounts"
}

func (a *TokenAccount) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}
