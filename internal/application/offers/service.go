package offers

import (
	"context"
	"fmt"
	"time"

	"onda-backend/internal/custody"
	"onda-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Offers and bids are collection-scoped: any verified NFT from the collection
// may satisfy them. The concrete mint binds only when the offer is taken.
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

func loanOfferVault(collection, lender string, offerID int16) string {
	return fmt.Sprintf("loan_offer:%s:%s:%d", collection, lender, offerID)
}

func optionBidVault(collection, buyer string, bidID int16) string {
	return fmt.Sprintf("option_bid:%s:%s:%d", collection, buyer, bidID)
}

// OfferLoan escrows principal against a collection. The offer id makes the
// (collection, lender, id) triple unique so a lender can hold several offers
// open at once (transactional).
func (s *Service) OfferLoan(ctx context.Context, lender, collectionMint string, amount, basisPoints, duration int64, offerID int16) (*domain.LoanOffer, error) {
	if amount <= 0 || duration <= 0 {
		return nil, domain.ErrInvalidParameters
	}

	var offer domain.LoanOffer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var policy domain.CollectionPolicy
		if err := tx.Where("mint = ?", collectionMint).First(&policy).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrInvalidCollection
			}
			return err
		}
		if !policy.LoanEnabled {
			return domain.ErrPolicyDisabled
		}

		vault := loanOfferVault(collectionMint, lender, offerID)
		if err := domain.TransferLamports(tx, lender, vault, amount); err != nil {
			return err
		}
		offer = domain.LoanOffer{
			OfferID:        offerID,
			CollectionMint: collectionMint,
			Lender:         lender,
			Amount:         amount,
			BasisPoints:    basisPoints,
			Duration:       duration,
			VaultAddress:   vault,
		}
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, collectionMint, "LOAN_OFFER_MADE", lender, map[string]interface{}{
			"offer_id": offerID, "amount": amount, "basis_points": basisPoints, "duration": duration,
		})
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// CloseLoanOffer refunds the vault to its creator and removes the offer
// (transactional).
func (s *Service) CloseLoanOffer(ctx context.Context, lender, collectionMint string, offerID int16) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := findLoanOffer(tx, collectionMint, lender, offerID)
		if err != nil {
			return err
		}
		if err := domain.TransferLamports(tx, offer.VaultAddress, lender, offer.Amount); err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(offer).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, collectionMint, "LOAN_OFFER_CLOSED", lender, map[string]interface{}{
			"offer_id": offerID,
		})
	})
}

// TakeLoanOffer binds a concrete mint to a collection-scoped offer: the NFT
// must verifiably belong to the offer's collection, the loan starts directly
// active with the offer's terms and the vault drains to the borrower
// (transactional).
func (s *Service) TakeLoanOffer(ctx context.Context, borrower, mint, lender string, offerID int16) (*domain.Loan, error) {
	var loan domain.Loan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, md, err := s.Custody.Policy(ctx, tx, mint)
		if err != nil {
			return err
		}
		offer, err := findLoanOffer(tx, md.CollectionMint, lender, offerID)
		if err != nil {
			return err
		}
		if borrower == offer.Lender {
			return domain.ErrInvalidParameters
		}

		if _, err := s.Custody.Register(ctx, tx, mint, borrower, domain.ProductLoan); err != nil {
			return err
		}
		if err := domain.TransferLamports(tx, offer.VaultAddress, borrower, offer.Amount); err != nil {
			return err
		}

		now := s.now()
		loan = domain.Loan{
			Mint:        mint,
			Borrower:    borrower,
			Lender:      &offer.Lender,
			Amount:      offer.Amount,
			BasisPoints: offer.BasisPoints,
			Duration:    offer.Duration,
			StartDate:   &now,
			State:       domain.LoanStateActive,
		}
		if err := tx.Create(&loan).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(offer).Error; err != nil {
			return err
		}

		log.Info().Str("mint", mint).Str("lender", offer.Lender).Int64("amount", offer.Amount).
			Msg("loan offer taken")

		return domain.RecordEvent(tx, mint, "LOAN_OFFER_TAKEN", borrower, map[string]interface{}{
			"offer_id": offerID, "loan_id": loan.LoanID, "amount": offer.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// BidCallOption escrows a premium bid against a collection (transactional).
func (s *Service) BidCallOption(ctx context.Context, buyer, collectionMint string, premium, strikePrice, expiry int64, bidID int16) (*domain.CallOptionBid, error) {
	if premium <= 0 || strikePrice <= 0 {
		return nil, domain.ErrInvalidParameters
	}
	if expiry <= s.now() {
		return nil, domain.ErrInvalidExpiry
	}

	var bid domain.CallOptionBid
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var policy domain.CollectionPolicy
		if err := tx.Where("mint = ?", collectionMint).First(&policy).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrInvalidCollection
			}
			return err
		}
		if !policy.OptionEnabled {
			return domain.ErrPolicyDisabled
		}

		vault := optionBidVault(collectionMint, buyer, bidID)
		if err := domain.TransferLamports(tx, buyer, vault, premium); err != nil {
			return err
		}
		bid = domain.CallOptionBid{
			BidID:          bidID,
			CollectionMint: collectionMint,
			Buyer:          buyer,
			Amount:         premium,
			StrikePrice:    strikePrice,
			Expiry:         expiry,
			VaultAddress:   vault,
		}
		if err := tx.Create(&bid).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, collectionMint, "OPTION_BID_MADE", buyer, map[string]interface{}{
			"bid_id": bidID, "premium": premium, "strike_price": strikePrice, "expiry": expiry,
		})
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// CloseBid refunds the premium vault to the bidder and removes the bid
// (transactional).
func (s *Service) CloseBid(ctx context.Context, buyer, collectionMint string, bidID int16) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bid, err := findOptionBid(tx, collectionMint, buyer, bidID)
		if err != nil {
			return err
		}
		if err := domain.TransferLamports(tx, bid.VaultAddress, buyer, bid.Amount); err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(bid).Error; err != nil {
			return err
		}
		return domain.RecordEvent(tx, collectionMint, "OPTION_BID_CLOSED", buyer, map[string]interface{}{
			"bid_id": bidID,
		})
	})
}

// SellCallOption sells into a bid with a concrete mint from the bid's
// collection: the option starts directly active with the bid's terms, the
// premium vault drains to the seller (transactional).
func (s *Service) SellCallOption(ctx context.Context, seller, mint, buyer string, bidID int16) (*domain.CallOption, error) {
	var option domain.CallOption
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, md, err := s.Custody.Policy(ctx, tx, mint)
		if err != nil {
			return err
		}
		bid, err := findOptionBid(tx, md.CollectionMint, buyer, bidID)
		if err != nil {
			return err
		}
		if seller == bid.Buyer {
			return domain.ErrInvalidParameters
		}
		if s.now() > bid.Expiry {
			return domain.ErrOptionExpired
		}

		if _, err := s.Custody.Register(ctx, tx, mint, seller, domain.ProductCallOption); err != nil {
			return err
		}
		if err := domain.TransferLamports(tx, bid.VaultAddress, seller, bid.Amount); err != nil {
			return err
		}

		option = domain.CallOption{
			Mint:        mint,
			Seller:      seller,
			Buyer:       &bid.Buyer,
			Amount:      bid.Amount,
			StrikePrice: bid.StrikePrice,
			Expiry:      bid.Expiry,
			State:       domain.OptionStateActive,
		}
		if err := tx.Create(&option).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(bid).Error; err != nil {
			return err
		}

		log.Info().Str("mint", mint).Str("buyer", bid.Buyer).Int64("premium", bid.Amount).
			Msg("sold into option bid")

		return domain.RecordEvent(tx, mint, "OPTION_BID_SOLD", seller, map[string]interface{}{
			"bid_id": bidID, "option_id": option.OptionID, "premium": bid.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// ByCollection returns open loan offers for a collection.
func (s *Service) ByCollection(ctx context.Context, collectionMint string) ([]domain.LoanOffer, error) {
	var out []domain.LoanOffer
	err := s.DB.WithContext(ctx).Where("collection_mint = ?", collectionMint).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

// BidsByCollection returns open option bids for a collection.
func (s *Service) BidsByCollection(ctx context.Context, collectionMint string) ([]domain.CallOptionBid, error) {
	var out []domain.CallOptionBid
	err := s.DB.WithContext(ctx).Where("collection_mint = ?", collectionMint).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func findLoanOffer(tx *gorm.DB, collection, lender string, offerID int16) (*domain.LoanOffer, error) {
	var offer domain.LoanOffer
	err := tx.Where("collection_mint = ? AND lender = ? AND offer_id = ?", collection, lender, offerID).
		First(&offer).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func findOptionBid(tx *gorm.DB, collection, buyer string, bidID int16) (*domain.CallOptionBid, error) {
	var bid domain.CallOptionBid
	err := tx.Where("collection_mint = ? AND buyer = ? AND bid_id = ?", collection, buyer, bidID).
		First(&bid).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
