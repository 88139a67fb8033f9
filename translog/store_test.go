package translog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore connects to TECP_TEST_DATABASE_URL when set, mirroring the
// certenIO-certen-validator pattern of skipping DB-backed tests when no
// test database is configured rather than failing the whole suite.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TECP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TECP_TEST_DATABASE_URL not set, skipping Postgres-backed test")
	}
	store, err := OpenStore(context.Background(), StoreConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAppendAndLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	active, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	ring := NewKeyRing(active)
	logger := zerolog.Nop()

	log, err := OpenLog(ctx, store, ring, logger)
	require.NoError(t, err)

	res, err := log.Append(ctx, "git:abc1234", []byte("first receipt hash.....32bytes."))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LeafIndex)
	assert.Equal(t, int64(1), res.TreeSize)
	require.NotNil(t, res.Proof)
	assert.Equal(t, int64(1), res.Proof.LeafIndex)

	res2, err := log.Append(ctx, "git:abc1234", []byte("second receipt hash....32bytes."))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res2.LeafIndex)
	assert.Equal(t, int64(2), res2.TreeSize)

	proof, err := log.Proof(ctx, 1)
	require.NoError(t, err)
	assert.NoError(t, VerifyInclusion(res.LeafHash, 0, proof.TreeSize, proof.AuditPath, proof.RootHash))

	entries, err := log.Entries(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "git:abc1234", entries[0].CodeRef)
	assert.Equal(t, int64(1), entries[0].LeafIndex)
	assert.Equal(t, int64(2), entries[1].LeafIndex)
}

func TestLogRotateKeysPersists(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	active, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	ring := NewKeyRing(active)
	log, err := OpenLog(ctx, store, ring, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, log.Rotate(ctx))
	keys, err := store.AllKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestSTHTickerRunReturnsOnContextCancel(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	active, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	ring := NewKeyRing(active)
	log, err := OpenLog(ctx, store, ring, zerolog.Nop())
	require.NoError(t, err)

	ticker := NewSTHTicker(log, 50*time.Millisecond, zerolog.Nop())
	ticker.Run(ctx)
}
