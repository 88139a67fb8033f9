package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSignsEquivalentReceiptToCreateOptions(t *testing.T) {
	s := newTestSigner(t)

	r, err := NewBuilder("git:abc1234").
		WithInput([]byte("hello")).
		WithOutput([]byte("world")).
		WithPolicyIDs("no_retention").
		WithProfile(ProfileLite).
		Sign(s)
	require.NoError(t, err)

	assert.Equal(t, "git:abc1234", r.CodeRef)
	assert.Equal(t, []string{"no_retention"}, r.PolicyIDs)
	res := Verify(r, VerifyOptions{Profile: ProfileLite, Now: time.UnixMilli(r.TS)})
	assert.True(t, res.Valid, "violations: %v", res.Errors)
}

func TestBuilderWithPolicyRuntimeDeniesViaEnforcer(t *testing.T) {
	s := newTestSigner(t)

	_, err := NewBuilder("git:abc1234").
		WithInput([]byte("a")).
		WithOutput([]byte("b")).
		WithPolicyRuntime(denyingEnforcer{}).
		Sign(s)
	require.Error(t, err)
	var se *SignError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeSignPolicyDenied, se.Code)
}
