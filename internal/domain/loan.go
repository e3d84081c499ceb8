package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LoanStateListed    = "listed"
	LoanStateActive    = "active"
	LoanStateRepaid    = "repaid"
	LoanStateDefaulted = "defaulted"
)

// Loan is a fixed-term, interest-bearing borrowing against a pledged mint.
type Loan struct {
	LoanID      uuid.UUID      `gorm:"column:loan_id;type:uuid;primaryKey" json:"loan_id"`
	Mint        string         `gorm:"column:mint;not null;index" json:"mint"`
	Borrower    string         `gorm:"column:borrower;not null;index" json:"borrower"`
	Lender      *string        `gorm:"column:lender" json:"lender"`
	Amount      int64          `gorm:"column:amount;not null" json:"amount"`
	BasisPoints int64          `gorm:"column:basis_points;not null" json:"basis_points"`
	Duration    int64          `gorm:"column:duration;not null" json:"duration"`
	StartDate   *int64         `gorm:"column:start_date" json:"start_date"`
	State       string         `gorm:"column:state;type:varchar(20);default:'listed'" json:"state"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Loan) TableName() string {
	return "Loans"
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.LoanID == uuid.Nil {
		l.LoanID = uuid.New()
	}
	return nil
}

// SetActive moves a listed loan to active at the given timestamp.
func (l *Loan) SetActive(lender string, now int64) error {
	if l.State != LoanStateListed {
		return ErrAlreadyActive
	}
	if l.Amount <= 0 || l.Duration <= 0 {
		return ErrInvalidState
	}
	l.Lender = &lender
	l.State = LoanStateActive
	start := now
	l.StartDate = &start
	return nil
}

// DueDate returns the timestamp after which the lender may repossess.
func (l *Loan) DueDate() int64 {
	if l.StartDate == nil {
		return 0
	}
	return *l.StartDate + l.Duration
}

// LoanOffer is a collection-scoped, mint-agnostic loan commitment with its
// principal escrowed in a vault wallet until taken or cancelled.
type LoanOffer struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OfferID        int16          `gorm:"column:offer_id;not null;uniqueIndex:idx_loan_offer" json:"offer_id"`
	CollectionMint string         `gorm:"column:collection_mint;not null;uniqueIndex:idx_loan_offer" json:"collection_mint"`
	Lender         string         `gorm:"column:lender;not null;uniqueIndex:idx_loan_offer" json:"lender"`
	Amount         int64          `gorm:"column:amount;not null" json:"amount"`
	BasisPoints    int64          `gorm:"column:basis_points;not null" json:"basis_points"`
	Duration       int64          `gorm:"column:duration;not null" json:"duration"`
	VaultAddress   string         `gorm:"column:vault_address;not null" json:"vault_address"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LoanOffer) TableName() string {
	return "LoanOffers"
}

func (o *LoanOffer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
