package rentals

import (
	"onda-backend/internal/custody"
	"onda-backend/internal/domain"
	"onda-backend/internal/pkg/finance"

	"gorm.io/gorm"
)

// SettleEscrow pays out a rental's escrow balance at settlement time: the
// earned fraction to the rental lender, the unearned remainder back to the
// borrower of record. Used when a loan default or option exercise terminates
// custody while a hire is still running, and by recover/close.
func SettleEscrow(tx *gorm.DB, rental *domain.Rental, now int64) error {
	if rental.EscrowBalance == 0 {
		return nil
	}
	if rental.CurrentStart == nil || rental.CurrentExpiry == nil {
		return domain.ErrInvalidState
	}

	earned := finance.ProRata(rental.EscrowBalance, *rental.CurrentStart, *rental.CurrentExpiry, now)
	unearned := rental.EscrowBalance - earned

	if earned > 0 {
		if err := domain.TransferLamports(tx, rental.EscrowAddress(), rental.Lender, earned); err != nil {
			return err
		}
	}
	if unearned > 0 && rental.Borrower != nil {
		if err := domain.TransferLamports(tx, rental.EscrowAddress(), *rental.Borrower, unearned); err != nil {
			return err
		}
	}

	rental.EscrowBalance = 0
	return tx.Save(rental).Error
}

// Terminate settles and tears down any rental on the mint because another
// product is taking the asset. Returns the hire borrower if one currently
// holds the token, so the caller escrows from the right account. No rental
// on the mint is not an error.
func Terminate(tx *gorm.DB, c *custody.Service, mint string, now int64) (string, error) {
	var rental domain.Rental
	err := tx.Where("mint = ?", mint).First(&rental).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	holder := ""
	if rental.State == domain.RentalStateRented && rental.Borrower != nil {
		holder = *rental.Borrower
	}
	if err := SettleEscrow(tx, &rental, now); err != nil {
		return "", err
	}
	deregisterAs := rental.Lender
	if holder != "" {
		deregisterAs = holder
	}
	if err := c.Deregister(tx, mint, deregisterAs, domain.ProductRental); err != nil {
		return "", err
	}
	if err := tx.Delete(&rental).Error; err != nil {
		return "", err
	}
	return holder, nil
}
