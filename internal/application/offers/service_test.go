package offers

import (
	"context"
	"testing"
	"time"

	"onda-backend/internal/custody"
	"onda-backend/internal/domain"
	"onda-backend/internal/metadata"
	"onda-backend/internal/token"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	t0             = int64(1_700_000_000)
	testCollection = "collectionC"
	testMint       = "mintA"
	borrower       = "alice"
	lender         = "bob"
)

func setupOfferTest(t *testing.T) (*Service, *gorm.DB, *int64) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.TokenAccount{}, &domain.TokenManager{}, &domain.CollectionPolicy{},
		&domain.Wallet{}, &domain.Loan{}, &domain.LoanOffer{},
		&domain.CallOption{}, &domain.CallOptionBid{}, &domain.EscrowEvent{},
	))

	require.NoError(t, db.Create(&domain.CollectionPolicy{
		Mint: testCollection, Authority: "authority",
		LoanEnabled: true, OptionEnabled: true, RentalEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&domain.TokenAccount{Owner: borrower, Mint: testMint, Amount: 1}).Error)
	require.NoError(t, domain.CreditLamports(db, lender, 5_000_000_000))

	resolver := (&metadata.StaticResolver{}).Add(&metadata.Metadata{
		Mint:               testMint,
		CollectionMint:     testCollection,
		CollectionVerified: true,
	})

	clock := t0
	svc := &Service{
		DB:      db,
		Custody: &custody.Service{Tokens: token.LedgerGateway{}, Metadata: resolver},
		Now:     func() time.Time { return time.Unix(clock, 0) },
	}
	return svc, db, &clock
}

func lamports(t *testing.T, db *gorm.DB, address string) int64 {
	t.Helper()
	var w domain.Wallet
	require.NoError(t, db.Where("address = ?", address).First(&w).Error)
	return w.Lamports
}

func TestOfferLoanEscrowsVault(t *testing.T) {
	svc, db, _ := setupOfferTest(t)
	ctx := context.Background()

	_, err := svc.OfferLoan(ctx, lender, testCollection, 0, 500, 86_400, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	_, err = svc.OfferLoan(ctx, lender, testCollection, 1_000_000_000, 500, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	_, err = svc.OfferLoan(ctx, lender, "unknown", 1_000_000_000, 500, 86_400, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCollection)

	offer, err := svc.OfferLoan(ctx, lender, testCollection, 1_000_000_000, 500, 86_400, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4_000_000_000), lamports(t, db, lender))
	assert.Equal(t, int64(1_000_000_000), lamports(t, db, offer.VaultAddress))
}

func TestTakeLoanOfferBindsLate(t *testing.T) {
	svc, db, _ := setupOfferTest(t)
	ctx := context.Background()

	offer, err := svc.OfferLoan(ctx, lender, testCollection, 1_000_000_000, 500, 86_400, 0)
	require.NoError(t, err)

	loan, err := svc.TakeLoanOffer(ctx, borrower, testMint, lender, 0)
	require.NoError(t, err)

	// Loan starts directly active with the offer's terms.
	assert.Equal(t, domain.LoanStateActive, loan.State)
	require.NotNil(t, loan.Lender)
	assert.Equal(t, lender, *loan.Lender)
	assert.Equal(t, int64(1_000_000_000), loan.Amount)
	assert.Equal(t, int64(500), loan.BasisPoints)
	require.NotNil(t, loan.StartDate)
	assert.Equal(t, t0, *loan.StartDate)

	// Vault drained to the borrower, offer gone.
	assert.Equal(t, int64(0), lamports(t, db, offer.VaultAddress))
	assert.Equal(t, int64(1_000_000_000), lamports(t, db, borrower))
	var count int64
	db.Unscoped().Model(&domain.LoanOffer{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// Collateral locked like any directly listed loan.
	acc, err := svc.Custody.Tokens.Account(db, borrower, testMint)
	require.NoError(t, err)
	assert.True(t, acc.Frozen)
}

func TestTakeLoanOfferWrongCollection(t *testing.T) {
	svc, _, _ := setupOfferTest(t)
	ctx := context.Background()

	_, err := svc.OfferLoan(ctx, lender, "otherCollection", 1_000_000_000, 500, 86_400, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCollection)

	_, err = svc.OfferLoan(ctx, lender, testCollection, 1_000_000_000, 500, 86_400, 0)
	require.NoError(t, err)

	// An unverified mint never satisfies a collection-scoped offer.
	_, err = svc.TakeLoanOffer(ctx, borrower, "strayMint", lender, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloseLoanOfferRefunds(t *testing.T) {
	svc, db, _ := setupOfferTest(t)
	ctx := context.Background()

	_, err := svc.OfferLoan(ctx, lender, testCollection, 1_000_000_000, 500, 86_400, 3)
	require.NoError(t, err)
	require.NoError(t, svc.CloseLoanOffer(ctx, lender, testCollection, 3))
	assert.Equal(t, int64(5_000_000_000), lamports(t, db, lender))

	// The same slot is reusable after closing.
	_, err = svc.OfferLoan(ctx, lender, testCollection, 2_000_000_000, 600, 86_400, 3)
	require.NoError(t, err)
}

func TestSellIntoOptionBid(t *testing.T) {
	svc, db, _ := setupOfferTest(t)
	ctx := context.Background()

	bid, err := svc.BidCallOption(ctx, lender, testCollection, 1_000_000, 1_000_000_000, t0+172_800, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), lamports(t, db, bid.VaultAddress))

	option, err := svc.SellCallOption(ctx, borrower, testMint, lender, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.OptionStateActive, option.State)
	require.NotNil(t, option.Buyer)
	assert.Equal(t, lender, *option.Buyer)
	assert.Equal(t, int64(1_000_000_000), option.StrikePrice)

	// Premium vault drains to the seller.
	assert.Equal(t, int64(0), lamports(t, db, bid.VaultAddress))
	assert.Equal(t, int64(1_000_000), lamports(t, db, borrower))

	var count int64
	db.Unscoped().Model(&domain.CallOptionBid{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSellIntoExpiredBidFails(t *testing.T) {
	svc, _, clock := setupOfferTest(t)
	ctx := context.Background()

	_, err := svc.BidCallOption(ctx, lender, testCollection, 1_000_000, 1_000_000_000, t0+172_800, 0)
	require.NoError(t, err)

	*clock = t0 + 172_801
	_, err = svc.SellCallOption(ctx, borrower, testMint, lender, 0)
	assert.ErrorIs(t, err, domain.ErrOptionExpired)
}

func TestCloseBidRefunds(t *testing.T) {
	svc, db, _ := setupOfferTest(t)
	ctx := context.Background()

	_, err := svc.BidCallOption(ctx, lender, testCollection, 1_000_000, 1_000_000_000, t0+172_800, 1)
	require.NoError(t, err)
	require.NoError(t, svc.CloseBid(ctx, lender, testCollection, 1))
	assert.Equal(t, int64(5_000_000_000), lamports(t, db, lender))

	assert.ErrorIs(t, svc.CloseBid(ctx, lender, testCollection, 1), domain.ErrNotFound)
}
