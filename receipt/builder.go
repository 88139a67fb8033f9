package receipt

import "time"

// Builder accumulates a receipt's fields before signing, mirroring the
// teacher's FromSegment -> Sign two-step construction
// (internal/receipts/signer.go) generalized from "accumulate one media
// segment, then sign" to "accumulate a receipt's optional fields, then
// sign". Each With* method mutates and returns the Builder so calls chain;
// Sign hands the accumulated CreateOptions to a Signer unchanged.
type Builder struct {
	opts CreateOptions
}

// NewBuilder starts a Builder for a receipt attesting to codeRef, defaulting
// to ProfileDefault.
func NewBuilder(codeRef string) *Builder {
	return &Builder{opts: CreateOptions{CodeRef: codeRef, Profile: ProfileDefault}}
}

// WithInput sets the bytes hashed into input_hash.
func (b *Builder) WithInput(input []byte) *Builder {
	b.opts.Input = input
	return b
}

// WithOutput sets the bytes hashed into output_hash.
func (b *Builder) WithOutput(output []byte) *Builder {
	b.opts.Output = output
	return b
}

// WithPolicyIDs sets the policy IDs declared on the receipt and, if an
// Enforcer is wired via WithPolicyRuntime, evaluated before signing.
func (b *Builder) WithPolicyIDs(ids ...string) *Builder {
	b.opts.PolicyIDs = append([]string(nil), ids...)
	return b
}

// WithProfile overrides the default verification profile.
func (b *Builder) WithProfile(p Profile) *Builder {
	b.opts.Profile = p
	return b
}

// WithKeyErasure attaches a declared key-erasure scheme.
func (b *Builder) WithKeyErasure(ke *KeyErasure) *Builder {
	b.opts.KeyErasure = ke
	return b
}

// WithEnvironment attaches a declared execution environment.
func (b *Builder) WithEnvironment(env *Environment) *Builder {
	b.opts.Environment = env
	return b
}

// WithExt attaches opaque extension fields.
func (b *Builder) WithExt(ext map[string]any) *Builder {
	b.opts.Ext = ext
	return b
}

// WithStartTime records when the underlying computation began, for
// enforcers running a TTL-style check.
func (b *Builder) WithStartTime(t time.Time) *Builder {
	b.opts.StartTime = t
	return b
}

// WithPolicyRuntime wires e as the Enforcer consulted for PolicyIDs before
// Sign signs anything (spec.md §4.3: "an empty violations slice is required
// before CreateReceipt will sign").
func (b *Builder) WithPolicyRuntime(e Enforcer) *Builder {
	b.opts.Enforcer = e
	return b
}

// Sign builds and signs the accumulated receipt with s.
func (b *Builder) Sign(s *Signer) (*Receipt, error) {
	return s.CreateReceipt(b.opts)
}
