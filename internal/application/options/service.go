package options

import (
	"context"
	"time"

	"onda-backend/internal/application/rentals"
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

// Ask lists a call option over a pledged NFT (transactional).
func (s *Service) Ask(ctx context.Context, seller, mint string, premium, strikePrice, expiry int64) (*domain.CallOption, error) {
	if premium <= 0 || strikePrice <= 0 {
		return nil, domain.ErrInvalidParameters
	}
	if expiry <= s.now() {
		return nil, domain.ErrInvalidExpiry
	}

	var option domain.CallOption
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.Custody.Register(ctx, tx, mint, seller, domain.ProductCallOption); err != nil {
			return err
		}
		option = domain.CallOption{
			Mint:        mint,
			Seller:      seller,
			Amount:      premium,
			StrikePrice: strikePrice,
			Expiry:      expiry,
			State:       domain.OptionStateListed,
		}
		if err := tx.Create(&option).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, mint, "OPTION_LISTED", seller, map[string]interface{}{
			"option_id": option.OptionID, "premium": premium, "strike_price": strikePrice, "expiry": expiry,
		})
	})
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// Buy purchases a listed option: the premium goes to the seller minus the
// collection's protocol fee (transactional).
func (s *Service) Buy(ctx context.Context, buyer string, optionID uuid.UUID) (*domain.CallOption, error) {
	var option domain.CallOption
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findOption(tx, optionID, &option); err != nil {
			return err
		}
		if option.State != domain.OptionStateListed {
			return domain.ErrAlreadyActive
		}
		if buyer == option.Seller {
			return domain.ErrInvalidParameters
		}
		if s.now() > option.Expiry {
			return domain.ErrOptionExpired
		}

		policy, _, err := s.Custody.Policy(ctx, tx, option.Mint)
		if err != nil {
			return err
		}
		protocolFee, err := finance.FeeFromBasisPoints(option.Amount, policy.OptionFeeBps)
		if err != nil {
			return err
		}
		if err := domain.TransferLamports(tx, buyer, option.Seller, option.Amount-protocolFee); err != nil {
			return err
		}
		if protocolFee > 0 {
			if err := domain.TransferLamports(tx, buyer, policy.Authority, protocolFee); err != nil {
				return err
			}
		}

		option.Buyer = &buyer
		option.State = domain.OptionStateActive
		if err := tx.Save(&option).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, option.Mint, "OPTION_BOUGHT", buyer, map[string]interface{}{
			"option_id": option.OptionID, "premium": option.Amount, "protocol_fee": protocolFee,
		})
	})
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// Exercise settles an active option before expiry: strike price flows to the
// seller minus creator royalties, any running hire is settled, and the asset
// escrows for the buyer to claim (transactional).
func (s *Service) Exercise(ctx context.Context, buyer string, optionID uuid.UUID) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var option domain.CallOption
		if err := findOption(tx, optionID, &option); err != nil {
			return err
		}
		if option.State != domain.OptionStateActive {
			return domain.ErrInvalidState
		}
		if option.Buyer == nil || *option.Buyer != buyer {
			return domain.ErrUnauthorized
		}
		now := s.now()
		if now > option.Expiry {
			return domain.ErrOptionExpired
		}

		_, md, err := s.Custody.Policy(ctx, tx, option.Mint)
		if err != nil {
			return err
		}

		holder := option.Seller
		manager, err := s.Custody.Manager(tx, option.Mint)
		if err != nil {
			return err
		}
		if manager.Rental {
			hirer, err := rentals.Terminate(tx, s.Custody, option.Mint, now)
			if err != nil {
				return err
			}
			if hirer != "" {
				holder = hirer
			}
		}

		creatorFee, err := royalty.Pay(tx, buyer, option.Seller, option.StrikePrice, md)
		if err != nil {
			return err
		}

		if err := s.Custody.TransferAuthority(tx, option.Mint, buyer, domain.ProductCallOption); err != nil {
			return err
		}
		if err := s.Custody.EscrowAsset(tx, option.Mint, holder); err != nil {
			return err
		}

		option.State = domain.OptionStateExercised
		if err := tx.Save(&option).Error; err != nil {
			return err
		}
		if err := s.Custody.Deregister(tx, option.Mint, holder, domain.ProductCallOption); err != nil {
			return err
		}

		log.Info().Str("option_id", option.OptionID.String()).Int64("strike_price", option.StrikePrice).
			Int64("creator_fee", creatorFee).Msg("option exercised")

		result = map[string]interface{}{
			"option_id":     option.OptionID,
			"strike_price":  option.StrikePrice,
			"creator_fee":   creatorFee,
			"seller_due":    option.StrikePrice - creatorFee,
			"new_authority": buyer,
		}
		return domain.RecordEvent(tx, option.Mint, "OPTION_EXERCISED", buyer, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close retires an option: listed options close anytime, bought options only
// after expiry (transactional).
func (s *Service) Close(ctx context.Context, seller string, optionID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var option domain.CallOption
		if err := findOption(tx, optionID, &option); err != nil {
			return err
		}
		if option.Seller != seller {
			return domain.ErrUnauthorized
		}
		switch option.State {
		case domain.OptionStateListed:
		case domain.OptionStateActive:
			if s.now() <= option.Expiry {
				return domain.ErrOptionNotExpired
			}
		default:
			return domain.ErrInvalidState
		}

		if err := s.Custody.Deregister(tx, option.Mint, seller, domain.ProductCallOption); err != nil {
			return err
		}
		option.State = domain.OptionStateClosed
		if err := tx.Save(&option).Error; err != nil {
			return err
		}
		if err := tx.Delete(&option).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, option.Mint, "OPTION_CLOSED", seller, map[string]interface{}{
			"option_id": option.OptionID,
		})
	})
}

// ByMint returns options for a mint, newest first.
func (s *Service) ByMint(ctx context.Context, mint string) ([]domain.CallOption, error) {
	var out []domain.CallOption
	err := s.DB.WithContext(ctx).Where("mint = ?", mint).Order("created_at DESC").Find(&out).Error
	return out, err
}

func findOption(tx *gorm.DB, optionID uuid.UUID, out *domain.CallOption) error {
	if err := tx.Where("option_id = ?", optionID).First(out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}
