package token

import (
	"testing"

	"onda-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupGatewayTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.TokenAccount{}))
	return db
}

func seedToken(t *testing.T, db *gorm.DB, owner, mint string) {
	require.NoError(t, db.Create(&domain.TokenAccount{Owner: owner, Mint: mint, Amount: 1}).Error)
}

func TestApproveThenFreeze(t *testing.T) {
	db := setupGatewayTest(t)
	g := LedgerGateway{}
	seedToken(t, db, "alice", "mintA")

	require.NoError(t, g.Approve(db, "alice", "mintA", "manager"))
	require.NoError(t, g.Freeze(db, "alice", "mintA"))

	acc, err := g.Account(db, "alice", "mintA")
	require.NoError(t, err)
	assert.True(t, acc.Frozen)
	require.NotNil(t, acc.Delegate)
	assert.Equal(t, "manager", *acc.Delegate)
}

func TestApproveRejectsSecondDelegate(t *testing.T) {
	db := setupGatewayTest(t)
	g := LedgerGateway{}
	seedToken(t, db, "alice", "mintA")

	require.NoError(t, g.Approve(db, "alice", "mintA", "manager"))
	err := g.Approve(db, "alice", "mintA", "someone-else")
	assert.ErrorIs(t, err, domain.ErrInvalidDelegate)
}

func TestFrozenAccountRefusesTransferAndClose(t *testing.T) {
	db := setupGatewayTest(t)
	g := LedgerGateway{}
	seedToken(t, db, "alice", "mintA")
	require.NoError(t, g.Approve(db, "alice", "mintA", "manager"))
	require.NoError(t, g.Freeze(db, "alice", "mintA"))

	assert.ErrorIs(t, g.Transfer(db, "alice", "bob", "mintA"), domain.ErrAccountFrozen)
	assert.ErrorIs(t, g.CloseAccount(db, "alice", "mintA"), domain.ErrAccountFrozen)
}

func TestCloseNonEmptyDelegatedFails(t *testing.T) {
	db := setupGatewayTest(t)
	g := LedgerGateway{}
	seedToken(t, db, "alice", "mintA")
	require.NoError(t, g.Approve(db, "alice", "mintA", "manager"))

	assert.ErrorIs(t, g.CloseAccount(db, "alice", "mintA"), domain.ErrInvalidState)
}

func TestTransferDelegatedThawsAndMoves(t *testing.T) {
	db := setupGatewayTest(t)
	g := LedgerGateway{}
	seedToken(t, db, "alice", "mintA")
	require.NoError(t, g.Approve(db, "alice", "mintA", "manager"))
	require.NoError(t, g.Freeze(db, "alice", "mintA"))

	assert.ErrorIs(t, g.TransferDelegated(db, "alice", "bob", "mintA", "impostor"), domain.ErrInvalidDelegate)
	require.NoError(t, g.TransferDelegated(db, "alice", "bob", "mintA", "manager"))

	to, err := g.Account(db, "bob", "mintA")
	require.NoError(t, err)
	assert.Equal(t, int64(1), to.Amount)
	assert.False(t, to.Frozen)
	assert.Nil(t, to.Delegate)

	from, err := g.Account(db, "alice", "mintA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), from.Amount)
}
