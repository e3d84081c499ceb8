package domain

import (
	"time"

	"gorm.io/gorm"
)

// Wallet holds a lamport balance for an address. Offer/bid escrow vaults are
// ordinary Wallet rows with generated addresses, so conservation checks cover
// them the same way as user wallets.
type Wallet struct {
	Address   string    `gorm:"column:address;primaryKey" json:"address"`
	Lamports  int64     `gorm:"column:lamports;not null;default:0" json:"lamports"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Wallet) TableName() string {
	return "Wallets"
}

// TransferLamports moves lamports between wallets inside the caller's
// transaction. The destination wallet is created if missing; the source must
// exist and cover the amount.
func TransferLamports(tx *gorm.DB, from, to string, amount int64) error {
	if amount < 0 {
		return ErrInvalidParameters
	}
	if amount == 0 || from == to {
		return nil
	}

	var src Wallet
	if err := tx.Where("address = ?", from).First(&src).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrInsufficientFunds
		}
		return err
	}
	if src.Lamports < amount {
		return ErrInsufficientFunds
	}
	src.Lamports -= amount
	if err := tx.Save(&src).Error; err != nil {
		return err
	}

	var dst Wallet
	err := tx.Where("address = ?", to).First(&dst).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&Wallet{Address: to, Lamports: amount}).Error
	}
	if err != nil {
		return err
	}
	dst.Lamports += amount
	return tx.Save(&dst).Error
}

// CreditLamports mints lamports into a wallet (fiat on-ramp, test fixtures).
func CreditLamports(tx *gorm.DB, address string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidParameters
	}
	var w Wallet
	err := tx.Where("address = ?", address).First(&w).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&Wallet{Address: address, Lamports: amount}).Error
	}
	if err != nil {
		return err
	}
	w.Lamports += amount
	return tx.Save(&w).Error
}
