package rentals

import (
	"context"
	"time"

	"onda-backend/internal/custody"
	"onda-backend/internal/domain"
	"onda-backend/internal/pkg/finance"
	"onda-backend/internal/pkg/royalty"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB      *gorm.DB
	Custody *custody.Service
	Now     func() time.Time
}

func (s *Service) now() int64 {
	if s.Now != nil {
		return s.Now().Unix()
	}
	return time.Now().Unix()
}

// List offers an NFT for hire at a per-day rate until expiry. A private
// borrower restricts who may take it (transactional).
func (s *Service) List(ctx context.Context, lender, mint string, perDay, expiry int64, privateBorrower *string) (*domain.Rental, error) {
	if perDay <= 0 {
		return nil, domain.ErrInvalidParameters
	}
	if expiry <= s.now() {
		return nil, domain.ErrInvalidExpiry
	}

	var rental domain.Rental
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Custody.Register(ctx, tx, mint, lender, domain.ProductRental); err != nil {
			return err
		}
		rental = domain.Rental{
			Mint:            mint,
			Lender:          lender,
			PrivateBorrower: privateBorrower,
			Amount:          perDay,
			Expiry:          expiry,
			State:           domain.RentalStateListed,
		}
		if err := tx.Create(&rental).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, mint, "RENTAL_LISTED", lender, map[string]interface{}{
			"rental_id": rental.RentalID, "per_day": perDay, "expiry": expiry,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// Take hires the asset for a number of days. A lapsed hire relists in the
// same transition, so the new taker never waits on lender action
// (transactional).
func (s *Service) Take(ctx context.Context, borrower string, rentalID uuid.UUID, days int64) (*domain.Rental, error) {
	if days <= 0 {
		return nil, domain.ErrInvalidParameters
	}

	var rental domain.Rental
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRental(tx, rentalID, &rental); err != nil {
			return err
		}
		if borrower == rental.Lender {
			return domain.ErrInvalidParameters
		}
		if rental.PrivateBorrower != nil && *rental.PrivateBorrower != borrower {
			return domain.ErrRequireKeysEqViolated
		}

		now := s.now()
		holder := rental.Lender
		if rental.State == domain.RentalStateRented {
			if !rental.HireLapsed(now) {
				return domain.ErrInvalidState
			}
			// Previous hire lapsed: settle it and take over from its borrower.
			if rental.Borrower != nil {
				holder = *rental.Borrower
			}
			if err := SettleEscrow(tx, &rental, now); err != nil {
				return err
			}
		}

		currentExpiry := now + days*finance.SecondsPerDay
		if currentExpiry > rental.Expiry {
			return domain.ErrInvalidExpiry
		}

		if err := s.payRent(ctx, tx, &rental, borrower, days); err != nil {
			return err
		}

		if err := s.Custody.ReleaseHolder(tx, holder, borrower, rental.Mint); err != nil {
			return err
		}
		if err := s.Custody.FreezeWithHolder(tx, borrower, rental.Mint); err != nil {
			return err
		}

		rental.Borrower = &borrower
		rental.CurrentStart = &now
		rental.CurrentExpiry = &currentExpiry
		rental.State = domain.RentalStateRented
		if err := tx.Save(&rental).Error; err != nil {
			return err
		}

		log.Info().Str("rental_id", rental.RentalID.String()).Int64("days", days).Msg("rental taken")

		return domain.RecordEvent(tx, rental.Mint, "RENTAL_TAKEN", borrower, map[string]interface{}{
			"rental_id": rental.RentalID, "days": days, "current_expiry": currentExpiry,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// Extend lengthens the running hire by whole days, paid the same way as the
// original take (transactional).
func (s *Service) Extend(ctx context.Context, borrower string, rentalID uuid.UUID, days int64) (*domain.Rental, error) {
	if days <= 0 {
		return nil, domain.ErrInvalidParameters
	}

	var rental domain.Rental
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRental(tx, rentalID, &rental); err != nil {
			return err
		}
		if rental.State != domain.RentalStateRented {
			return domain.ErrInvalidState
		}
		if rental.Borrower == nil || *rental.Borrower != borrower {
			return domain.ErrUnauthorized
		}
		if rental.HireLapsed(s.now()) {
			return domain.ErrInvalidState
		}

		currentExpiry := *rental.CurrentExpiry + days*finance.SecondsPerDay
		if currentExpiry > rental.Expiry {
			return domain.ErrInvalidExpiry
		}

		if err := s.payRent(ctx, tx, &rental, borrower, days); err != nil {
			return err
		}

		rental.CurrentExpiry = &currentExpiry
		if err := tx.Save(&rental).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, rental.Mint, "RENTAL_EXTENDED", borrower, map[string]interface{}{
			"rental_id": rental.RentalID, "days": days, "current_expiry": currentExpiry,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// Recover takes the asset back from a lapsed hire and relists it
// (transactional).
func (s *Service) Recover(ctx context.Context, lender string, rentalID uuid.UUID) (*domain.Rental, error) {
	var rental domain.Rental
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findRental(tx, rentalID, &rental); err != nil {
			return err
		}
		if rental.Lender != lender {
			return domain.ErrUnauthorized
		}
		if rental.State != domain.RentalStateRented {
			return domain.ErrInvalidState
		}
		now := s.now()
		if !rental.HireLapsed(now) {
			return domain.ErrNotExpired
		}

		if err := SettleEscrow(tx, &rental, now); err != nil {
			return err
		}
		if err := s.Custody.ReleaseHolder(tx, *rental.Borrower, lender, rental.Mint); err != nil {
			return err
		}
		if err := s.Custody.FreezeWithHolder(tx, lender, rental.Mint); err != nil {
			return err
		}

		rental.Borrower = nil
		rental.CurrentStart = nil
		rental.CurrentExpiry = nil
		rental.State = domain.RentalStateListed
		if err := tx.Save(&rental).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, rental.Mint, "RENTAL_RECOVERED", lender, map[string]interface{}{
			"rental_id": rental.RentalID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// Withdraw pays the lender the earned fraction of the rental escrow and
// restarts accrual from now (transactional).
func (s *Service) Withdraw(ctx context.Context, lender string, rentalID uuid.UUID) (int64, error) {
	var earned int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rental domain.Rental
		if err := findRental(tx, rentalID, &rental); err != nil {
			return err
		}
		if rental.Lender != lender {
			return domain.ErrUnauthorized
		}
		if rental.EscrowBalance == 0 {
			return nil
		}
		if rental.CurrentStart == nil || rental.CurrentExpiry == nil {
			return domain.ErrInvalidState
		}

		now := s.now()
		earned = finance.ProRata(rental.EscrowBalance, *rental.CurrentStart, *rental.CurrentExpiry, now)
		if earned == 0 {
			return nil
		}
		if err := domain.TransferLamports(tx, rental.EscrowAddress(), lender, earned); err != nil {
			return err
		}
		rental.EscrowBalance -= earned
		rental.CurrentStart = &now
		if err := tx.Save(&rental).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, rental.Mint, "RENTAL_WITHDRAWN", lender, map[string]interface{}{
			"rental_id": rental.RentalID, "earned": earned,
		})
	})
	if err != nil {
		return 0, err
	}
	return earned, nil
}

// Close takes the listing down. A running hire blocks closing until it
// lapses (transactional).
func (s *Service) Close(ctx context.Context, lender string, rentalID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rental domain.Rental
		if err := findRental(tx, rentalID, &rental); err != nil {
			return err
		}
		if rental.Lender != lender {
			return domain.ErrUnauthorized
		}

		now := s.now()
		holder := lender
		if rental.State == domain.RentalStateRented {
			if !rental.HireLapsed(now) {
				return domain.ErrInvalidState
			}
			if err := SettleEscrow(tx, &rental, now); err != nil {
				return err
			}
			if err := s.Custody.ReleaseHolder(tx, *rental.Borrower, lender, rental.Mint); err != nil {
				return err
			}
		}

		manager, err := s.Custody.Manager(tx, rental.Mint)
		if err != nil {
			return err
		}
		if manager.Loan || manager.CallOption {
			// Other products still hold the mint: the asset stays locked
			// with the lender after the rental slot clears.
			if err := s.Custody.FreezeWithHolder(tx, lender, rental.Mint); err != nil {
				return err
			}
		}
		if err := s.Custody.Deregister(tx, rental.Mint, holder, domain.ProductRental); err != nil {
			return err
		}
		if err := tx.Delete(&rental).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, rental.Mint, "RENTAL_CLOSED", lender, map[string]interface{}{
			"rental_id": rental.RentalID,
		})
	})
}

// ByMint returns rentals for a mint, newest first.
func (s *Service) ByMint(ctx context.Context, mint string) ([]domain.Rental, error) {
	var out []domain.Rental
	err := s.DB.WithContext(ctx).Where("mint = ?", mint).Order("created_at DESC").Find(&out).Error
	return out, err
}

// payRent charges days of rent. When another product claims the mint the
// rent parks in the rental escrow so a later default or exercise can refund
// the unearned part; otherwise it pays the lender directly, creators taking
// their royalty cut.
func (s *Service) payRent(ctx context.Context, tx *gorm.DB, rental *domain.Rental, payer string, days int64) error {
	rent := days * rental.Amount

	manager, err := s.Custody.Manager(tx, rental.Mint)
	if err != nil {
		return err
	}
	if manager.Loan || manager.CallOption {
		if err := domain.TransferLamports(tx, payer, rental.EscrowAddress(), rent); err != nil {
			return err
		}
		rental.EscrowBalance += rent
		return nil
	}

	_, md, err := s.Custody.Policy(ctx, tx, rental.Mint)
	if err != nil {
		return err
	}
	_, err = royalty.Pay(tx, payer, rental.Lender, rent, md)
	return err
}

func findRental(tx *gorm.DB, rentalID uuid.UUID, out *domain.Rental) error {
	if err := tx.Where("rental_id = ?", rentalID).First(out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}
