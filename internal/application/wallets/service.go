package wallets

import (
	"context"

	"onda-backend/internal/domain"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Balance returns the lamport balance. Unknown addresses read as zero.
func (s *Service) Balance(ctx context.Context, address string) (int64, error) {
	var w domain.Wallet
	err := s.DB.WithContext(ctx).Where("address = ?", address).First(&w).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return w.Lamports, nil
}

// Deposit credits lamports to a wallet, creating it on first use
// (transactional).
func (s *Service) Deposit(ctx context.Context, address string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidParameters
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return domain.CreditLamports(tx, address, amount)
	})
}

// Transfer moves lamports between wallets (transactional).
func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidParameters
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return domain.TransferLamports(tx, from, to, amount)
	})
}
