package options

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
	seller         = "alice"
	buyer          = "bob"
	creator        = "creator1"
)

func setupOptionTest(t *testing.T) (*Service, *gorm.DB, *int64) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.TokenAccount{}, &domain.TokenManager{}, &domain.CollectionPolicy{},
		&domain.Wallet{}, &domain.CallOption{}, &domain.Rental{}, &domain.EscrowEvent{},
	))

	require.NoError(t, db.Create(&domain.CollectionPolicy{
		Mint: testCollection, Authority: "authority",
		LoanEnabled: true, OptionEnabled: true, RentalEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&domain.TokenAccount{Owner: seller, Mint: testMint, Amount: 1}).Error)
	require.NoError(t, domain.CreditLamports(db, buyer, 5_000_000_000))

	resolver := (&metadata.StaticResolver{}).Add(&metadata.Metadata{
		Mint:                 testMint,
		CollectionMint:       testCollection,
		CollectionVerified:   true,
		SellerFeeBasisPoints: 500,
		Creators:             []metadata.Creator{{Address: creator, Share: 100}},
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

func TestAskRejectsPastExpiry(t *testing.T) {
	svc, _, _ := setupOptionTest(t)
	ctx := context.Background()

	_, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidExpiry)
	_, err = svc.Ask(ctx, seller, testMint, 0, 1_000_000_000, t0+86_400)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestBuyPaysPremiumMinusProtocolFee(t *testing.T) {
	svc, db, _ := setupOptionTest(t)
	ctx := context.Background()
	require.NoError(t, db.Model(&domain.CollectionPolicy{}).Where("mint = ?", testCollection).
		Update("option_fee_bps", 200).Error)

	option, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0+172_800)
	require.NoError(t, err)

	_, err = svc.Buy(ctx, seller, option.OptionID)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	bought, err := svc.Buy(ctx, buyer, option.OptionID)
	require.NoError(t, err)
	assert.Equal(t, domain.OptionStateActive, bought.State)
	require.NotNil(t, bought.Buyer)
	assert.Equal(t, buyer, *bought.Buyer)

	// floor(1_000_000 * 200 / 10_000) = 20_000 to the collection authority.
	assert.Equal(t, int64(980_000), lamports(t, db, seller))
	assert.Equal(t, int64(20_000), lamports(t, db, "authority"))

	_, err = svc.Buy(ctx, "carol", option.OptionID)
	assert.ErrorIs(t, err, domain.ErrAlreadyActive)
}

func TestBuyAfterExpiryFails(t *testing.T) {
	svc, _, clock := setupOptionTest(t)
	ctx := context.Background()

	option, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0+172_800)
	require.NoError(t, err)

	*clock = t0 + 172_801
	_, err = svc.Buy(ctx, buyer, option.OptionID)
	assert.ErrorIs(t, err, domain.ErrOptionExpired)
}

func TestExerciseSettlesStrikeWithRoyalties(t *testing.T) {
	svc, db, clock := setupOptionTest(t)
	ctx := context.Background()

	option, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0+172_800)
	require.NoError(t, err)
	_, err = svc.Buy(ctx, buyer, option.OptionID)
	require.NoError(t, err)

	_, err = svc.Exercise(ctx, seller, option.OptionID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	*clock = t0 + 86_400
	result, err := svc.Exercise(ctx, buyer, option.OptionID)
	require.NoError(t, err)

	// 500bps of the 1 SOL strike goes to the sole creator.
	assert.Equal(t, int64(50_000_000), result["creator_fee"])
	assert.Equal(t, int64(50_000_000), lamports(t, db, creator))
	assert.Equal(t, int64(1_000_000+950_000_000), lamports(t, db, seller))

	// Asset escrows for the buyer to claim.
	m, err := svc.Custody.Manager(db, testMint)
	require.NoError(t, err)
	assert.True(t, m.Escrowed)
	require.NotNil(t, m.Authority)
	assert.Equal(t, buyer, *m.Authority)

	require.NoError(t, svc.Custody.Claim(db, testMint, buyer))
	acc, err := svc.Custody.Tokens.Account(db, buyer, testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Amount)
}

func TestExpiredOptionLifecycle(t *testing.T) {
	svc, db, clock := setupOptionTest(t)
	ctx := context.Background()

	option, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0+172_800)
	require.NoError(t, err)
	*clock = t0 + 10
	_, err = svc.Buy(ctx, buyer, option.OptionID)
	require.NoError(t, err)

	// Holder cannot exercise once the window has passed.
	*clock = t0 + 172_801
	_, err = svc.Exercise(ctx, buyer, option.OptionID)
	assert.ErrorIs(t, err, domain.ErrOptionExpired)

	// But the seller may now close and recover the asset.
	*clock = t0 + 172_900
	require.NoError(t, svc.Close(ctx, seller, option.OptionID))

	acc, err := svc.Custody.Tokens.Account(db, seller, testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Amount)
	assert.False(t, acc.Frozen)
	assert.Nil(t, acc.Delegate)
	_, err = svc.Custody.Manager(db, testMint)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloseActiveBeforeExpiryFails(t *testing.T) {
	svc, _, clock := setupOptionTest(t)
	ctx := context.Background()

	option, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0+172_800)
	require.NoError(t, err)
	_, err = svc.Buy(ctx, buyer, option.OptionID)
	require.NoError(t, err)

	*clock = t0 + 100
	assert.ErrorIs(t, svc.Close(ctx, seller, option.OptionID), domain.ErrOptionNotExpired)
	assert.ErrorIs(t, svc.Close(ctx, buyer, option.OptionID), domain.ErrUnauthorized)
}

func TestCloseListedAnytime(t *testing.T) {
	svc, db, _ := setupOptionTest(t)
	ctx := context.Background()

	option, err := svc.Ask(ctx, seller, testMint, 1_000_000, 1_000_000_000, t0+172_800)
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx, seller, option.OptionID))

	acc, err := svc.Custody.Tokens.Account(db, seller, testMint)
	require.NoError(t, err)
	assert.False(t, acc.Frozen)
}
