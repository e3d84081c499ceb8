package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OptionStateListed    = "listed"
	OptionStateActive    = "active"
	OptionStateExercised = "exercised"
	OptionStateClosed    = "closed"
)

// CallOption is a European-style option to buy a pledged mint at a strike
// price before expiry. Amount is the premium paid on purchase.
type CallOption struct {
	OptionID    uuid.UUID      `gorm:"column:option_id;type:uuid;primaryKey" json:"option_id"`
	Mint        string         `gorm:"column:mint;not null;index" json:"mint"`
	Seller      string         `gorm:"column:seller;not null;index" json:"seller"`
	Buyer       *string        `gorm:"column:buyer" json:"buyer"`
	Amount      int64          `gorm:"column:amount;not null" json:"amount"`
	StrikePrice int64          `gorm:"column:strike_price;not null" json:"strike_price"`
	Expiry      int64          `gorm:"column:expiry;not null" json:"expiry"`
	State       string         `gorm:"column:state;type:varchar(20);default:'listed'" json:"state"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CallOption) TableName() string {
	return "CallOptions"
}

func (o *CallOption) BeforeCreate(tx *gorm.DB) error {
	if o.OptionID == uuid.Nil {
		o.OptionID = uuid.New()
	}
	return nil
}

// CallOptionBid is a collection-scoped bid for an option, premium escrowed in
// a vault wallet until sold into or cancelled.
type CallOptionBid struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BidID          int16          `gorm:"column:bid_id;not null;uniqueIndex:idx_option_bid" json:"bid_id"`
	CollectionMint string         `gorm:"column:collection_mint;not null;uniqueIndex:idx_option_bid" json:"collection_mint"`
	Buyer          string         `gorm:"column:buyer;not null;uniqueIndex:idx_option_bid" json:"buyer"`
	Amount         int64          `gorm:"column:amount;not null" json:"amount"`
	StrikePrice    int64          `gorm:"column:strike_price;not null" json:"strike_price"`
	Expiry         int64          `gorm:"column:expiry;not null" json:"expiry"`
	VaultAddress   string         `gorm:"column:vault_address;not null" json:"vault_address"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CallOptionBid) TableName() string {
	return "CallOptionBids"
}

func (b *CallOptionBid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
