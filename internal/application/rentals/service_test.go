package rentals

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
	owner          = "alice"
	hirer          = "bob"
	secondHirer    = "carol"
	perDay         = int64(10_000)
	listingExpiry  = t0 + 15_552_000
)

func setupRentalTest(t *testing.T) (*Service, *gorm.DB, *int64) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.TokenAccount{}, &domain.TokenManager{}, &domain.CollectionPolicy{},
		&domain.Wallet{}, &domain.Rental{}, &domain.EscrowEvent{},
	))

	require.NoError(t, db.Create(&domain.CollectionPolicy{
		Mint: testCollection, Authority: "authority",
		LoanEnabled: true, OptionEnabled: true, RentalEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&domain.TokenAccount{Owner: owner, Mint: testMint, Amount: 1}).Error)
	require.NoError(t, domain.CreditLamports(db, hirer, 10_000_000))
	require.NoError(t, domain.CreditLamports(db, secondHirer, 10_000_000))

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

func TestTakeMovesTokenLocked(t *testing.T) {
	svc, db, _ := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)

	taken, err := svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStateRented, taken.State)
	require.NotNil(t, taken.CurrentExpiry)
	assert.Equal(t, t0+172_800, *taken.CurrentExpiry)

	// Token sits in the hirer's account, still frozen and delegated.
	acc, err := svc.Custody.Tokens.Account(db, hirer, testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Amount)
	assert.True(t, acc.Frozen)
	require.NotNil(t, acc.Delegate)

	// No other product on the mint: rent goes straight to the lender.
	assert.Equal(t, 2*perDay, lamports(t, db, owner))
}

func TestTakeWhileRentedBlocksUntilLapse(t *testing.T) {
	svc, db, clock := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)
	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)

	*clock = t0 + 86_400
	_, err = svc.Take(ctx, secondHirer, rental.RentalID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Past the hire window a new taker succeeds without lender action.
	*clock = t0 + 172_801
	taken, err := svc.Take(ctx, secondHirer, rental.RentalID, 1)
	require.NoError(t, err)
	require.NotNil(t, taken.Borrower)
	assert.Equal(t, secondHirer, *taken.Borrower)
	assert.Equal(t, t0+172_801+86_400, *taken.CurrentExpiry)

	acc, err := svc.Custody.Tokens.Account(db, secondHirer, testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Amount)
	assert.True(t, acc.Frozen)
}

func TestTakePrivateBorrowerOnly(t *testing.T) {
	svc, _, _ := setupRentalTest(t)
	ctx := context.Background()

	private := hirer
	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, &private)
	require.NoError(t, err)

	_, err = svc.Take(ctx, secondHirer, rental.RentalID, 1)
	assert.ErrorIs(t, err, domain.ErrRequireKeysEqViolated)

	_, err = svc.Take(ctx, hirer, rental.RentalID, 1)
	require.NoError(t, err)
}

func TestTakePastListingExpiryFails(t *testing.T) {
	svc, _, _ := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, t0+86_400, nil)
	require.NoError(t, err)

	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidExpiry)
}

func TestRentEscrowsWhenLoanHoldsMint(t *testing.T) {
	svc, db, _ := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)

	// A loan registered on the same mint parks rent in escrow.
	require.NoError(t, db.Model(&domain.TokenManager{}).Where("mint = ?", testMint).
		Update("loan", true).Error)

	taken, err := svc.Take(ctx, hirer, rental.RentalID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3*perDay, taken.EscrowBalance)
	assert.Equal(t, 3*perDay, lamports(t, db, taken.EscrowAddress()))

	var w domain.Wallet
	err = db.Where("address = ?", owner).First(&w).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestExtendSamePaymentPath(t *testing.T) {
	svc, db, clock := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)
	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)

	*clock = t0 + 86_400
	_, err = svc.Extend(ctx, secondHirer, rental.RentalID, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	extended, err := svc.Extend(ctx, hirer, rental.RentalID, 1)
	require.NoError(t, err)
	assert.Equal(t, t0+3*86_400, *extended.CurrentExpiry)
	assert.Equal(t, 3*perDay, lamports(t, db, owner))
}

func TestRecoverAfterLapse(t *testing.T) {
	svc, db, clock := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)
	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)

	*clock = t0 + 172_800
	_, err = svc.Recover(ctx, owner, rental.RentalID)
	assert.ErrorIs(t, err, domain.ErrNotExpired)

	*clock = t0 + 172_801
	recovered, err := svc.Recover(ctx, owner, rental.RentalID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStateListed, recovered.State)
	assert.Nil(t, recovered.Borrower)

	// Back with the lender, still locked while listed.
	acc, err := svc.Custody.Tokens.Account(db, owner, testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Amount)
	assert.True(t, acc.Frozen)
}

func TestWithdrawProRata(t *testing.T) {
	svc, db, clock := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.TokenManager{}).Where("mint = ?", testMint).
		Update("loan", true).Error)
	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)

	// Halfway through a 2-day hire: half the escrow is earned.
	*clock = t0 + 86_400
	earned, err := svc.Withdraw(ctx, owner, rental.RentalID)
	require.NoError(t, err)
	assert.Equal(t, perDay, earned)
	assert.Equal(t, perDay, lamports(t, db, owner))

	var r domain.Rental
	require.NoError(t, db.Where("rental_id = ?", rental.RentalID).First(&r).Error)
	assert.Equal(t, perDay, r.EscrowBalance)
	assert.Equal(t, t0+86_400, *r.CurrentStart)
}

func TestCloseBlockedByRunningHire(t *testing.T) {
	svc, db, clock := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)
	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Close(ctx, owner, rental.RentalID), domain.ErrInvalidState)

	*clock = t0 + 172_801
	require.NoError(t, svc.Close(ctx, owner, rental.RentalID))

	// Custody fully reverts once the only product slot clears.
	acc, err := svc.Custody.Tokens.Account(db, owner, testMint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Amount)
	assert.False(t, acc.Frozen)
	assert.Nil(t, acc.Delegate)
}

func TestTerminateRefundsUnearnedRent(t *testing.T) {
	svc, db, clock := setupRentalTest(t)
	ctx := context.Background()

	rental, err := svc.List(ctx, owner, testMint, perDay, listingExpiry, nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.TokenManager{}).Where("mint = ?", testMint).
		Update("loan", true).Error)
	_, err = svc.Take(ctx, hirer, rental.RentalID, 2)
	require.NoError(t, err)

	// A default halfway through the hire splits the escrow evenly.
	*clock = t0 + 86_400
	var holder string
	err = db.Transaction(func(tx *gorm.DB) error {
		holder, err = Terminate(tx, svc.Custody, testMint, *clock)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, hirer, holder)

	assert.Equal(t, perDay, lamports(t, db, owner))
	assert.Equal(t, int64(10_000_000-2*perDay+perDay), lamports(t, db, hirer))

	var count int64
	db.Model(&domain.Rental{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
