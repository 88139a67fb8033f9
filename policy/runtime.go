package policy

import (
	"fmt"
	"time"

	"github.com/tecp-protocol/tecp-go/receipt"
)

// Evidence records, per evaluated policy, what enforcement_type it carries
// and what the check (if any) observed (spec.md §4.3's evidence field).
// Evaluate returns it in Result.Evidence; Enforce does not pass it on, and
// receipts issued through receipt.Signer do not carry it.
type Evidence struct {
	PolicyID        string          `json:"policy_id"`
	EnforcementType EnforcementType `json:"enforcement_type"`
	Detail          string          `json:"detail"`
}

// Result is the full outcome of Runtime.Evaluate (spec.md §4.3:
// "{allowed, transformed_input, evidence, violations}").
type Result struct {
	Allowed          bool
	TransformedInput []byte
	Evidence         []Evidence
	Violations       []string
}

// Runtime evaluates a fixed Registry against call contexts. It is
// fail-closed: an unknown policy ID, a failing Check, or a failing
// Transform all produce a violation, never a silent pass.
type Runtime struct {
	registry *Registry
}

// NewRuntime builds a Runtime around reg. A nil reg is replaced with
// DefaultRegistry so a zero-value-adjacent Runtime is still useful.
func NewRuntime(reg *Registry) *Runtime {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Runtime{registry: reg}
}

// Evaluate runs every policy in policyIDs against ctx and input, in order,
// accumulating evidence and violations rather than stopping at the first
// failure (mirrors receipt.Verify's accumulate-don't-short-circuit style).
// The returned input is the chained output of every policy's Transform, or
// the original input if none declared one.
func (rt *Runtime) Evaluate(policyIDs []string, input []byte, ctx *Context) (*Result, error) {
	res := &Result{Allowed: true, TransformedInput: input}
	current := input

	for _, id := range policyIDs {
		p, ok := rt.registry.Lookup(id)
		if !ok {
			res.Allowed = false
			res.Violations = append(res.Violations, fmt.Sprintf("POLICY_UNKNOWN:%s", id))
			continue
		}

		if p.Check != nil {
			if err := p.Check(ctx); err != nil {
				res.Allowed = false
				res.Violations = append(res.Violations, fmt.Sprintf("%s:%v", p.ID, err))
				continue
			}
		}

		detail := "declarative, no machine check"
		if p.Check != nil {
			detail = "machine check passed"
		}
		res.Evidence = append(res.Evidence, Evidence{PolicyID: p.ID, EnforcementType: p.EnforcementType, Detail: detail})

		if p.Transform != nil {
			transformed, err := p.Transform(ctx, current)
			if err != nil {
				res.Allowed = false
				res.Violations = append(res.Violations, fmt.Sprintf("%s:%v", p.ID, err))
				continue
			}
			current = transformed
		}
	}

	res.TransformedInput = current
	return res, nil
}

// Enforce adapts Evaluate to receipt.Enforcer's shape, translating the
// receipt package's EnforceInput (which carries CodeRef/Environment/
// KeyErasure/StartTime so region, TTL, and key-erasure checks are actually
// reachable through this adapter) into a policy Context.
func (rt *Runtime) Enforce(in receipt.EnforceInput) (receipt.EnforceResult, error) {
	ctx := &Context{
		CodeRef:     in.CodeRef,
		Environment: fromReceiptEnvironment(in.Environment),
		KeyErasure:  fromReceiptKeyErasure(in.KeyErasure),
		Now:         time.Now(),
		StartTime:   in.StartTime,
	}
	res, err := rt.Evaluate(in.PolicyIDs, in.Input, ctx)
	if err != nil {
		return receipt.EnforceResult{}, err
	}
	return receipt.EnforceResult{
		Allowed:          res.Allowed,
		TransformedInput: res.TransformedInput,
		Violations:       res.Violations,
	}, nil
}

func fromReceiptEnvironment(env *receipt.Environment) *Environment {
	if env == nil {
		return nil
	}
	return &Environment{Region: env.Region, Provider: env.Provider}
}

func fromReceiptKeyErasure(ke *receipt.KeyErasure) *KeyErasure {
	if ke == nil {
		return nil
	}
	return &KeyErasure{Scheme: ke.Scheme, Evidence: ke.Evidence}
}
