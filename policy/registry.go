// Package policy implements C3 of TECP: a static registry of named
// policies plus a fail-closed runtime that evaluates declared policy IDs
// against a call context (spec.md §4.3). Grounded on the
// PolicyDecisionPoint shape from the corpus (fail-closed, stable policy
// refs; decisions are not hashed here) but made intentionally thinner —
// spec.md is explicit that "most enforcement is a naming convention" here,
// and only a handful of policies carry a mechanical check.
package policy

// EnforcementType classifies how (or whether) a policy is mechanically
// checked (spec.md §4.3). Closed enumeration: unknown strings never appear
// on a registered Policy.
type EnforcementType string

const (
	EnforcementDesign         EnforcementType = "design"
	EnforcementCryptographic  EnforcementType = "cryptographic"
	EnforcementInfrastructure EnforcementType = "infrastructure"
	EnforcementRuntime        EnforcementType = "runtime"
	EnforcementCodeAudit      EnforcementType = "code_audit"
)

// Policy is one entry in the registry.
type Policy struct {
	ID              string
	Description     string
	EnforcementType EnforcementType
	ComplianceTags  []string

	// Check runs the mechanical validation for cryptographic,
	// infrastructure, runtime, and code_audit policies. Nil for purely
	// declarative (design) policies.
	Check CheckFunc

	// Transform, if set, produces a transformed input for policies like
	// redaction that alter what gets hashed into the receipt.
	Transform TransformFunc
}

// CheckFunc validates a policy's machine-checkable precondition against
// the call context. A non-nil error becomes a violation string.
type CheckFunc func(ctx *Context) error

// TransformFunc rewrites the input before hashing (spec.md §4.3: "For
// policies with built-in transformations ... the runtime produces a
// transformed_input distinct from input").
type TransformFunc func(ctx *Context, input []byte) ([]byte, error)

// Registry is a static, immutable set of known policies, keyed by ID.
type Registry struct {
	policies map[string]Policy
}

// NewRegistry builds a Registry from a list of policies. Duplicate IDs
// overwrite earlier entries, last write wins — callers assembling a
// registry from multiple sources should dedupe upstream if that matters.
func NewRegistry(policies ...Policy) *Registry {
	r := &Registry{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		r.policies[p.ID] = p
	}
	return r
}

// Lookup returns the registered policy for id, if any.
func (r *Registry) Lookup(id string) (Policy, bool) {
	p, ok := r.policies[id]
	return p, ok
}

// DefaultRegistry returns the starter policy set described in
// SPEC_FULL.md §4.3, covering one example of each enforcement type plus
// the transform-capable redact_pii policy.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Policy{
			ID:              "no_retention",
			Description:     "the enclosing service does not persist input or output beyond the computation",
			EnforcementType: EnforcementDesign,
			ComplianceTags:  []string{"privacy"},
		},
		Policy{
			ID:              "no_pii",
			Description:     "caller asserts input/output contains no personally identifiable information",
			EnforcementType: EnforcementDesign,
			ComplianceTags:  []string{"privacy", "gdpr"},
		},
		Policy{
			ID:              "key_erasure",
			Description:     "the signing/session key is erased after issuance, with attached evidence",
			EnforcementType: EnforcementCryptographic,
			ComplianceTags:  []string{"privacy"},
			Check:           checkKeyErasure,
		},
		Policy{
			ID:              "eu_region",
			Description:     "computation ran in an EU region",
			EnforcementType: EnforcementInfrastructure,
			ComplianceTags:  []string{"gdpr"},
			Check:           checkRegionPrefix("eu"),
		},
		Policy{
			ID:              "us_region",
			Description:     "computation ran in a US region",
			EnforcementType: EnforcementInfrastructure,
			ComplianceTags:  []string{"data-residency"},
			Check:           checkRegionPrefix("us"),
		},
		Policy{
			ID:              "ttl_60s",
			Description:     "computation completed within 60 seconds of start",
			EnforcementType: EnforcementRuntime,
			ComplianceTags:  []string{"ephemerality"},
			Check:           checkTTL(60),
		},
		Policy{
			ID:              "ttl_300s",
			Description:     "computation completed within 300 seconds of start",
			EnforcementType: EnforcementRuntime,
			ComplianceTags:  []string{"ephemerality"},
			Check:           checkTTL(300),
		},
		Policy{
			ID:              "audited_code",
			Description:     "code_ref matches a recognized VCS-commit or build-hash shape",
			EnforcementType: EnforcementCodeAudit,
			ComplianceTags:  []string{"supply-chain"},
			Check:           checkCodeRefFormat,
		},
		Policy{
			ID:              "redact_pii",
			Description:     "runs the configured redactor over input before hashing; declarative if none configured",
			EnforcementType: EnforcementDesign,
			ComplianceTags:  []string{"privacy"},
			Transform:       transformRedact,
		},
	)
}
