package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecp-protocol/tecp-go/receipt"
)

func TestEvaluateDeclarativePolicyAlwaysPasses(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	res, err := rt.Evaluate([]string{"no_retention", "no_pii"}, []byte("hi"), &Context{})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Empty(t, res.Violations)
	assert.Len(t, res.Evidence, 2)
}

func TestEvaluateUnknownPolicyIsFailClosed(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	res, err := rt.Evaluate([]string{"does_not_exist"}, []byte("hi"), &Context{})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0], "POLICY_UNKNOWN:does_not_exist")
}

func TestKeyErasureRequiresEvidence(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())

	res, err := rt.Evaluate([]string{"key_erasure"}, nil, &Context{})
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res2, err := rt.Evaluate([]string{"key_erasure"}, nil, &Context{KeyErasure: &KeyErasure{Scheme: "sw-sim", Evidence: "counter=42"}})
	require.NoError(t, err)
	assert.True(t, res2.Allowed)
}

func TestRegionPolicies(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())

	res, err := rt.Evaluate([]string{"eu_region"}, nil, &Context{Environment: &Environment{Region: "eu-west-1"}})
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res2, err := rt.Evaluate([]string{"eu_region"}, nil, &Context{Environment: &Environment{Region: "us-east-1"}})
	require.NoError(t, err)
	assert.False(t, res2.Allowed)
}

func TestTTLPolicyBoundary(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	start := time.Now()

	withinBound := &Context{StartTime: start, Now: start.Add(60 * time.Second)}
	res, err := rt.Evaluate([]string{"ttl_60s"}, nil, withinBound)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "exactly 60s should be allowed: %v", res.Violations)

	overBound := &Context{StartTime: start, Now: start.Add(60*time.Second + time.Millisecond)}
	res2, err := rt.Evaluate([]string{"ttl_60s"}, nil, overBound)
	require.NoError(t, err)
	assert.False(t, res2.Allowed)
}

func TestAuditedCodeFormat(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())

	res, err := rt.Evaluate([]string{"audited_code"}, nil, &Context{CodeRef: "git:abc1234"})
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res2, err := rt.Evaluate([]string{"audited_code"}, nil, &Context{CodeRef: "not-a-ref"})
	require.NoError(t, err)
	assert.False(t, res2.Allowed)
}

func TestRedactPiiTransform(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	ctx := &Context{
		Redactor: func(input []byte) ([]byte, error) {
			return []byte("REDACTED"), nil
		},
	}
	res, err := rt.Evaluate([]string{"redact_pii"}, []byte("ssn=123-45-6789"), ctx)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, []byte("REDACTED"), res.TransformedInput)
}

func TestRedactPiiIsDeclarativeWithoutRedactor(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	res, err := rt.Evaluate([]string{"redact_pii"}, []byte("unchanged"), &Context{})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, []byte("unchanged"), res.TransformedInput)
}

func TestEnforceSatisfiesReceiptEnforcerShape(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	out, err := rt.Enforce(receipt.EnforceInput{PolicyIDs: []string{"no_retention"}, Input: []byte("hello")})
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.Equal(t, []byte("hello"), out.TransformedInput)
}

func TestEnforceThreadsEnvironmentCodeRefAndStartTime(t *testing.T) {
	rt := NewRuntime(DefaultRegistry())
	start := time.Now().Add(-30 * time.Second)

	out, err := rt.Enforce(receipt.EnforceInput{
		PolicyIDs:   []string{"eu_region", "audited_code", "ttl_60s"},
		Input:       []byte("hello"),
		CodeRef:     "git:abc1234",
		Environment: &receipt.Environment{Region: "eu-west-1"},
		StartTime:   start,
	})
	require.NoError(t, err)
	assert.True(t, out.Allowed, "violations: %v", out.Violations)

	out2, err := rt.Enforce(receipt.EnforceInput{
		PolicyIDs:   []string{"eu_region"},
		Input:       []byte("hello"),
		Environment: &receipt.Environment{Region: "us-east-1"},
	})
	require.NoError(t, err)
	assert.False(t, out2.Allowed, "us-east-1 must not satisfy eu_region")
}
