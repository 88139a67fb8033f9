package translog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreSignVerify(t *testing.T) {
	k, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	sig, err := k.Sign([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, k.Verify([]byte("hello"), sig))
	assert.False(t, k.Verify([]byte("tampered"), sig))
}

func TestKeyStoreCloseZeroesKey(t *testing.T) {
	k, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	k.Close()
	_, err = k.Sign([]byte("hello"))
	assert.Error(t, err)
}

func TestKeyRingRotatePromotesNextAndRevokesActive(t *testing.T) {
	active, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	ring := NewKeyRing(active)

	next, err := ring.PrepareNext()
	require.NoError(t, err)
	require.NoError(t, ring.Rotate())

	assert.Equal(t, next.KID(), ring.Active().KID())
	assert.Equal(t, KeyStateActive, ring.Active().State())
	assert.Equal(t, KeyStateRevoked, active.State())
	require.NotNil(t, active.Record().RevokedAt)
	assert.False(t, active.Record().CreatedAt.IsZero())
}

func TestKeyRingRotateWithoutNextFails(t *testing.T) {
	active, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	ring := NewKeyRing(active)
	assert.Error(t, ring.Rotate())
}

func TestKeyRingRecordsIncludesAllStates(t *testing.T) {
	active, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	ring := NewKeyRing(active)
	_, err = ring.PrepareNext()
	require.NoError(t, err)
	recs := ring.Records()
	assert.Len(t, recs, 2)
}
