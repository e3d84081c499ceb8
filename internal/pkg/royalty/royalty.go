// Package royalty distributes creator royalties out of a payment, per the
// mint's seller-fee basis points and registered creator shares.
package royalty

import (
	"onda-backend/internal/domain"
	"onda-backend/internal/metadata"
	"onda-backend/internal/pkg/finance"

	"gorm.io/gorm"
)

// Pay transfers amount from payer, routing the creator fee to each creator by
// share and the remainder (plus any split dust) to the recipient. Returns the
// total creator fee taken.
func Pay(tx *gorm.DB, payer, recipient string, amount int64, md *metadata.Metadata) (int64, error) {
	totalFee, err := finance.FeeFromBasisPoints(amount, md.SellerFeeBasisPoints)
	if err != nil {
		return 0, err
	}

	remainingFee := totalFee
	for _, creator := range md.Creators {
		creatorFee := finance.CreatorShare(totalFee, creator.Share)
		if creatorFee == 0 {
			continue
		}
		if err := domain.TransferLamports(tx, payer, creator.Address, creatorFee); err != nil {
			return 0, err
		}
		remainingFee -= creatorFee
	}

	// Split dust goes to the recipient, never lost.
	due := amount - totalFee + remainingFee
	if err := domain.TransferLamports(tx, payer, recipient, due); err != nil {
		return 0, err
	}
	return totalFee - remainingFee, nil
}
