package loans

import (
	"context"
	"time"

	"onda-backend/internal/application/rentals"
	"onda-backend/internal/custody"
	"onda-backend/internal/domain"
	"onda-backend/internal/pkg/finance"

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

// Ask lists an NFT as loan collateral (transactional).
func (s *Service) Ask(ctx context.Context, borrower, mint string, amount, basisPoints, duration int64) (*domain.Loan, error) {
	if amount <= 0 || duration <= 0 || basisPoints < 0 || basisPoints > finance.BasisPointsMax {
		return nil, domain.ErrInvalidParameters
	}

	var loan domain.Loan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Custody.Register(ctx, tx, mint, borrower, domain.ProductLoan); err != nil {
			return err
		}
		loan = domain.Loan{
			Mint:        mint,
			Borrower:    borrower,
			Amount:      amount,
			BasisPoints: basisPoints,
			Duration:    duration,
			State:       domain.LoanStateListed,
		}
		if err := tx.Create(&loan).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, mint, "LOAN_LISTED", borrower, map[string]interface{}{
			"loan_id": loan.LoanID, "amount": amount, "basis_points": basisPoints, "duration": duration,
		})
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Give funds a listed loan: principal moves lender to borrower and the clock
// starts (transactional).
func (s *Service) Give(ctx context.Context, lender string, loanID uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findLoan(tx, loanID, &loan); err != nil {
			return err
		}
		if lender == loan.Borrower {
			return domain.ErrInvalidParameters
		}
		if err := loan.SetActive(lender, s.now()); err != nil {
			return err
		}
		if err := domain.TransferLamports(tx, lender, loan.Borrower, loan.Amount); err != nil {
			return err
		}
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, loan.Mint, "LOAN_ACTIVE", lender, map[string]interface{}{
			"loan_id": loan.LoanID, "amount": loan.Amount, "start_date": loan.StartDate,
		})
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Repay settles an active loan: principal plus accrued interest to the
// lender, protocol fee out of the interest to the collection authority, then
// the loan slot deregisters (transactional).
func (s *Service) Repay(ctx context.Context, borrower string, loanID uuid.UUID) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan domain.Loan
		if err := findLoan(tx, loanID, &loan); err != nil {
			return err
		}
		if loan.State != domain.LoanStateActive {
			return domain.ErrInvalidState
		}
		if loan.Borrower != borrower {
			return domain.ErrUnauthorized
		}

		now := s.now()
		elapsed := now - *loan.StartDate
		interest, err := finance.Interest(loan.Amount, loan.BasisPoints, elapsed)
		if err != nil {
			return err
		}

		policy, _, err := s.Custody.Policy(ctx, tx, loan.Mint)
		if err != nil {
			return err
		}
		protocolFee, err := finance.FeeFromBasisPoints(interest, policy.LoanFeeBps)
		if err != nil {
			return err
		}

		lenderDue := loan.Amount + interest - protocolFee
		if err := domain.TransferLamports(tx, borrower, *loan.Lender, lenderDue); err != nil {
			return err
		}
		if protocolFee > 0 {
			if err := domain.TransferLamports(tx, borrower, policy.Authority, protocolFee); err != nil {
				return err
			}
		}

		loan.State = domain.LoanStateRepaid
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		if err := s.Custody.Deregister(tx, loan.Mint, loan.Borrower, domain.ProductLoan); err != nil {
			return err
		}

		log.Info().Str("loan_id", loan.LoanID.String()).Int64("interest", interest).
			Int64("protocol_fee", protocolFee).Msg("loan repaid")

		result = map[string]interface{}{
			"loan_id":      loan.LoanID,
			"interest":     interest,
			"protocol_fee": protocolFee,
			"lender_due":   lenderDue,
		}
		return domain.RecordEvent(tx, loan.Mint, "LOAN_REPAID", borrower, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Repossess defaults an overdue loan: any running hire is settled pro rata,
// authority rotates to the lender and the asset moves into escrow pending
// claim (transactional).
func (s *Service) Repossess(ctx context.Context, lender string, loanID uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findLoan(tx, loanID, &loan); err != nil {
			return err
		}
		if loan.State != domain.LoanStateActive {
			return domain.ErrInvalidState
		}
		if loan.Lender == nil || *loan.Lender != lender {
			return domain.ErrUnauthorized
		}
		now := s.now()
		if now <= loan.DueDate() {
			return domain.ErrNotOverdue
		}

		holder := loan.Borrower
		manager, err := s.Custody.Manager(tx, loan.Mint)
		if err != nil {
			return err
		}
		if manager.Rental {
			hirer, err := rentals.Terminate(tx, s.Custody, loan.Mint, now)
			if err != nil {
				return err
			}
			if hirer != "" {
				holder = hirer
			}
		}

		if err := s.Custody.TransferAuthority(tx, loan.Mint, lender, domain.ProductLoan); err != nil {
			return err
		}
		if err := s.Custody.EscrowAsset(tx, loan.Mint, holder); err != nil {
			return err
		}

		loan.State = domain.LoanStateDefaulted
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		if err := s.Custody.Deregister(tx, loan.Mint, holder, domain.ProductLoan); err != nil {
			return err
		}
		return domain.RecordEvent(tx, loan.Mint, "LOAN_DEFAULTED", lender, map[string]interface{}{
			"loan_id": loan.LoanID, "new_authority": lender,
		})
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Close removes a listed loan that was never funded (transactional).
func (s *Service) Close(ctx context.Context, borrower string, loanID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan domain.Loan
		if err := findLoan(tx, loanID, &loan); err != nil {
			return err
		}
		if loan.Borrower != borrower {
			return domain.ErrUnauthorized
		}
		if loan.State != domain.LoanStateListed {
			return domain.ErrInvalidState
		}
		if err := s.Custody.Deregister(tx, loan.Mint, borrower, domain.ProductLoan); err != nil {
			return err
		}
		if err := tx.Delete(&loan).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, loan.Mint, "LOAN_CLOSED", borrower, map[string]interface{}{
			"loan_id": loan.LoanID,
		})
	})
}

// ByMint returns loans for a mint, newest first.
func (s *Service) ByMint(ctx context.Context, mint string) ([]domain.Loan, error) {
	var out []domain.Loan
	err := s.DB.WithContext(ctx).Where("mint = ?", mint).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ByBorrower returns a borrower's loans, newest first.
func (s *Service) ByBorrower(ctx context.Context, borrower string) ([]domain.Loan, error) {
	var out []domain.Loan
	err := s.DB.WithContext(ctx).Where("borrower = ?", borrower).Order("created_at DESC").Find(&out).Error
	return out, err
}

func findLoan(tx *gorm.DB, loanID uuid.UUID, out *domain.Loan) error {
	if err := tx.Where("loan_id = ?", loanID).First(out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}
