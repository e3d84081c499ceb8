package collections

import (
	"context"

	"onda-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Config carries the per-product switches and fees for a collection policy.
type Config struct {
	LoanEnabled   bool  `json:"loan_enabled"`
	LoanFeeBps    int64 `json:"loan_fee_bps"`
	OptionEnabled bool  `json:"option_enabled"`
	OptionFeeBps  int64 `json:"option_fee_bps"`
	RentalEnabled bool  `json:"rental_enabled"`
	RentalFeeBps  int64 `json:"rental_fee_bps"`
}

// Init opens a collection for the escrow products (transactional).
func (s *Service) Init(ctx context.Context, authority, mint string, cfg Config) (*domain.CollectionPolicy, error) {
	policy := domain.CollectionPolicy{
		Mint:          mint,
		Authority:     authority,
		LoanEnabled:   cfg.LoanEnabled,
		LoanFeeBps:    cfg.LoanFeeBps,
		OptionEnabled: cfg.OptionEnabled,
		OptionFeeBps:  cfg.OptionFeeBps,
		RentalEnabled: cfg.RentalEnabled,
		RentalFeeBps:  cfg.RentalFeeBps,
	}
	if err := policy.ValidateFees(); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.CollectionPolicy{}).Where("mint = ?", mint).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyActive
		}
		if err := tx.Create(&policy).Error; err != nil {
			return err
		}
		log.Info().Str("collection", mint).Str("authority", authority).Msg("collection policy opened")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// Update rewrites the switches and fees. Authority only (transactional).
func (s *Service) Update(ctx context.Context, authority, mint string, cfg Config) (*domain.CollectionPolicy, error) {
	var policy domain.CollectionPolicy
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findPolicy(tx, mint, &policy); err != nil {
			return err
		}
		if policy.Authority != authority {
			return domain.ErrUnauthorized
		}
		policy.LoanEnabled = cfg.LoanEnabled
		policy.LoanFeeBps = cfg.LoanFeeBps
		policy.OptionEnabled = cfg.OptionEnabled
		policy.OptionFeeBps = cfg.OptionFeeBps
		policy.RentalEnabled = cfg.RentalEnabled
		policy.RentalFeeBps = cfg.RentalFeeBps
		if err := policy.ValidateFees(); err != nil {
			return err
		}
		return tx.Save(&policy).Error
	})
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// Close removes the policy. Open custody ledgers on the collection block it
// (transactional).
func (s *Service) Close(ctx context.Context, authority, mint string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var policy domain.CollectionPolicy
		if err := findPolicy(tx, mint, &policy); err != nil {
			return err
		}
		if policy.Authority != authority {
			return domain.ErrUnauthorized
		}
		var count int64
		if err := tx.Model(&domain.TokenManager{}).Where("collection = ?", mint).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrPolicyInUse
		}
		return tx.Delete(&policy).Error
	})
}

// Get returns one policy.
func (s *Service) Get(ctx context.Context, mint string) (*domain.CollectionPolicy, error) {
	var policy domain.CollectionPolicy
	if err := findPolicy(s.DB.WithContext(ctx), mint, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// List returns all open policies.
func (s *Service) List(ctx context.Context) ([]domain.CollectionPolicy, error) {
	var out []domain.CollectionPolicy
	err := s.DB.WithContext(ctx).Order("mint").Find(&out).Error
	return out, err
}

func findPolicy(tx *gorm.DB, mint string, out *domain.CollectionPolicy) error {
	if err := tx.Where("mint = ?", mint).First(out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}
