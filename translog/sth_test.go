package translog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifySTH(t *testing.T) {
	k, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	root := MTH(leaves(3))
	sth, err := IssueSTH(k, root, 3)
	require.NoError(t, err)

	pub := k.PublicKey()
	err = VerifySTH(sth, func(kid string) []byte {
		if kid == sth.KID {
			return pub
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestSTHSignatureDoesNotVerifyAsSignedTime(t *testing.T) {
	k, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	root := MTH(leaves(3))
	sth, err := IssueSTH(k, root, 3)
	require.NoError(t, err)

	// Splice the STH's signature onto a signed-time response for the same
	// root/kid: the added "purpose" domain separator in the signed-time
	// preimage must make this fail.
	forged := &SignedTime{RootHash: sth.RootHash, Timestamp: sth.Timestamp, KID: sth.KID, Signature: sth.Signature}
	pub := k.PublicKey()
	err = VerifySignedTime(forged, func(kid string) []byte { return pub })
	assert.Error(t, err)
}

func TestIssueAndVerifySignedTime(t *testing.T) {
	k, err := NewRandomKey(KeyStateActive)
	require.NoError(t, err)
	root := MTH(leaves(2))
	st, err := IssueSignedTime(k, root)
	require.NoError(t, err)

	pub := k.PublicKey()
	err = VerifySignedTime(st, func(kid string) []byte { return pub })
	assert.NoError(t, err)
}
