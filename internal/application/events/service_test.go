package events

import (
	"context"
	"errors"
	"testing"

	"onda-backend/internal/compression"
	"onda-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCompression struct {
	entries [][]byte
	fail    bool
}

func (f *fakeCompression) AddEntry(ctx context.Context, payload []byte) (*compression.LeafSchemaV1, error) {
	if f.fail {
		return nil, errors.New("unreachable")
	}
	f.entries = append(f.entries, payload)
	return &compression.LeafSchemaV1{Nonce: uint64(len(f.entries))}, nil
}

func (f *fakeCompression) DeleteEntry(ctx context.Context, req compression.DeleteEntryRequest) error {
	return nil
}

func setupEventTest(t *testing.T) (*Service, *fakeCompression, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.EscrowEvent{}))
	fake := &fakeCompression{}
	return &Service{DB: db, Compressed: fake}, fake, db
}

func TestByMintOrdersOldestFirst(t *testing.T) {
	svc, _, db := setupEventTest(t)
	ctx := context.Background()

	require.NoError(t, domain.RecordEvent(db, "mintA", "LOAN_LISTED", "alice", nil))
	require.NoError(t, domain.RecordEvent(db, "mintA", "LOAN_ACTIVE", "bob", nil))
	require.NoError(t, domain.RecordEvent(db, "mintB", "RENTAL_LISTED", "carol", nil))

	events, err := svc.ByMint(ctx, "mintA")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "LOAN_LISTED", events[0].EventType)
	assert.Equal(t, "LOAN_ACTIVE", events[1].EventType)
}

func TestMirrorMintForwardsHistory(t *testing.T) {
	svc, fake, db := setupEventTest(t)
	ctx := context.Background()

	require.NoError(t, domain.RecordEvent(db, "mintA", "LOAN_LISTED", "alice", nil))
	require.NoError(t, domain.RecordEvent(db, "mintA", "LOAN_REPAID", "alice", nil))

	require.NoError(t, svc.MirrorMint(ctx, "mintA"))
	assert.Len(t, fake.entries, 2)
}

func TestMirrorFailureNeverPropagates(t *testing.T) {
	svc, fake, db := setupEventTest(t)
	ctx := context.Background()
	fake.fail = true

	require.NoError(t, domain.RecordEvent(db, "mintA", "LOAN_LISTED", "alice", nil))
	require.NoError(t, svc.MirrorMint(ctx, "mintA"))
	assert.Empty(t, fake.entries)
}
