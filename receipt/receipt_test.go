package receipt

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := GenerateSigner()
	require.NoError(t, err)
	return s
}

func TestCreateAndVerifyMinimalReceiptDefaultProfile(t *testing.T) {
	s := newTestSigner(t)
	r, err := s.CreateReceipt(CreateOptions{
		CodeRef:   "git:abc123",
		Input:     []byte("hello"),
		Output:    []byte("world"),
		PolicyIDs: []string{"no_retention"},
		Profile:   ProfileDefault,
	})
	require.NoError(t, err)

	res := Verify(r, VerifyOptions{Profile: ProfileDefault, Now: time.UnixMilli(r.TS)})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestVerifyTamperedOutputHash(t *testing.T) {
	s := newTestSigner(t)
	r, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello"), Output: []byte("world"),
		PolicyIDs: []string{"no_retention"}, Profile: ProfileDefault,
	})
	require.NoError(t, err)

	r.OutputHash[len(r.OutputHash)-1] ^= 0xFF

	res := Verify(r, VerifyOptions{Profile: ProfileDefault, Now: time.UnixMilli(r.TS)})
	assert.False(t, res.Valid)
	assertHasCode(t, res, CodeSigInvalid)
}

func TestVerifyExpiredUnderDefault(t *testing.T) {
	s := newTestSigner(t)
	r, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello"), Output: []byte("world"),
		PolicyIDs: []string{"no_retention"}, Profile: ProfileDefault,
	})
	require.NoError(t, err)

	now := time.UnixMilli(r.TS).Add(25 * time.Hour)
	res := Verify(r, VerifyOptions{Profile: ProfileDefault, Now: now})
	assert.False(t, res.Valid)
	assertHasCode(t, res, CodeAgeExpired)
}

func TestVerifyFutureSkewUnderDefault(t *testing.T) {
	s := newTestSigner(t)
	r, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello"), Output: []byte("world"),
		PolicyIDs: []string{"no_retention"}, Profile: ProfileDefault,
	})
	require.NoError(t, err)

	r.TS = time.UnixMilli(r.TS).Add(10 * time.Minute).UnixMilli()
	// Re-sign since ts is part of the signed fields; same package, so we
	// can reach the private key directly instead of exposing a test hook.
	preimage, err := signingPreimage(r)
	require.NoError(t, err)
	r.Sig = ed25519Sign(s, preimage)

	res := Verify(r, VerifyOptions{Profile: ProfileDefault, Now: time.UnixMilli(r.TS).Add(-10 * time.Minute)})
	assert.False(t, res.Valid)
	assertHasCode(t, res, CodeAgeFuture)
}

func TestVerifyStrictRequiresPolicies(t *testing.T) {
	s := newTestSigner(t)
	r, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello"), Output: []byte("world"),
		PolicyIDs: nil, Profile: ProfileStrict,
	})
	require.NoError(t, err)

	res := Verify(r, VerifyOptions{Profile: ProfileStrict, Now: time.UnixMilli(r.TS)})
	assert.False(t, res.Valid)
	assertHasCode(t, res, CodePolicyDenied)
}

func TestVerifyBoundaryAgeExactlyMaxAgeAccepted(t *testing.T) {
	s := newTestSigner(t)
	r, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello"), Output: []byte("world"),
		PolicyIDs: []string{"no_retention"}, Profile: ProfileDefault,
	})
	require.NoError(t, err)

	now := time.UnixMilli(r.TS).Add(24 * time.Hour)
	res := Verify(r, VerifyOptions{Profile: ProfileDefault, Now: now})
	assert.True(t, res.Valid, "exactly max age should be accepted: %v", res.Errors)

	now2 := now.Add(time.Millisecond)
	res2 := Verify(r, VerifyOptions{Profile: ProfileDefault, Now: now2})
	assert.False(t, res2.Valid, "one millisecond beyond max age should be rejected")
}

func TestHashBindingChangesSignature(t *testing.T) {
	s := newTestSigner(t)
	r1, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello"), Output: []byte("world"),
		PolicyIDs: []string{"no_retention"}, Profile: ProfileDefault,
	})
	require.NoError(t, err)
	r2, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:abc123", Input: []byte("hello!"), Output: []byte("world"),
		PolicyIDs: []string{"no_retention"}, Profile: ProfileDefault,
	})
	require.NoError(t, err)
	assert.NotEqual(t, r1.InputHash, r2.InputHash)

	// r2's signature must not verify against r1's hash fields.
	r2.InputHash = r1.InputHash
	res := Verify(r2, VerifyOptions{Profile: ProfileDefault, Now: time.UnixMilli(r2.TS)})
	assert.False(t, res.Valid)
	assertHasCode(t, res, CodeSigInvalid)
}

func TestSignNoKey(t *testing.T) {
	var s *Signer
	_, err := s.CreateReceipt(CreateOptions{CodeRef: "git:x", Input: []byte("a"), Output: []byte("b")})
	require.Error(t, err)
	var se *SignError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeSignNoKey, se.Code)
}

func TestSignPolicyDenied(t *testing.T) {
	s := newTestSigner(t)
	_, err := s.CreateReceipt(CreateOptions{
		CodeRef: "git:x", Input: []byte("a"), Output: []byte("b"),
		Enforcer: denyingEnforcer{},
	})
	require.Error(t, err)
	var se *SignError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeSignPolicyDenied, se.Code)
}

type denyingEnforcer struct{}

func (denyingEnforcer) Enforce(in EnforceInput) (EnforceResult, error) {
	return EnforceResult{Allowed: false, Violations: []string{"POLICY_UNKNOWN:nope"}}, nil
}

func assertHasCode(t *testing.T, res *VerificationResult, code Code) {
	t.Helper()
	for _, e := range res.Errors {
		if e.Code == code {
			return
		}
	}
	t.Fatalf("expected error code %s, got %v", code, res.Errors)
}

func ed25519Sign(s *Signer, preimage []byte) []byte {
	return ed25519.Sign(s.priv, preimage)
}
