package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RentalStateListed = "listed"
	RentalStateRented = "rented"
)

// Rental is a time-boxed usage right over a pledged mint, paid per day.
// Expiry is the listing deadline; CurrentExpiry the end of the active hire.
// When another product also claims the mint, rent accrues in EscrowBalance so
// a default or exercise can pro-rate the unearned part back to the borrower.
type Rental struct {
	RentalID        uuid.UUID      `gorm:"column:rental_id;type:uuid;primaryKey" json:"rental_id"`
	Mint            string         `gorm:"column:mint;not null;index" json:"mint"`
	Lender          string         `gorm:"column:lender;not null;index" json:"lender"`
	Borrower        *string        `gorm:"column:borrower" json:"borrower"`
	PrivateBorrower *string        `gorm:"column:private_borrower" json:"private_borrower"`
	Amount          int64          `gorm:"column:amount;not null" json:"amount"`
	Expiry          int64          `gorm:"column:expiry;not null" json:"expiry"`
	CurrentStart    *int64         `gorm:"column:current_start" json:"current_start"`
	CurrentExpiry   *int64         `gorm:"column:current_expiry" json:"current_expiry"`
	EscrowBalance   int64          `gorm:"column:escrow_balance;not null;default:0" json:"escrow_balance"`
	State           string         `gorm:"column:state;type:varchar(20);default:'listed'" json:"state"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Rental) TableName() string {
	return "Rentals"
}

func (r *Rental) BeforeCreate(tx *gorm.DB) error {
	if r.RentalID == uuid.Nil {
		r.RentalID = uuid.New()
	}
	return nil
}

// EscrowAddress derives the rental escrow wallet address. One per rental.
func (r *Rental) EscrowAddress() string {
	return "rental_escrow:" + r.RentalID.String()
}

// HireLapsed reports whether the current hire window has passed, meaning a
// new taker may re-hire without lender action.
func (r *Rental) HireLapsed(now int64) bool {
	return r.CurrentExpiry != nil && now > *r.CurrentExpiry
}
