package receipt

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"
)

// LogVerifier is the narrow interface receipt.Verify needs from a
// transparency log client (spec.md §4.2.2 step 6 / §4.4.4). translog's
// logclient.Client satisfies this without receipt importing translog.
type LogVerifier interface {
	// VerifyInclusion checks r's LogInclusion against the log's current
	// state and returns a VerificationError (wrapped) on any mismatch or
	// unreachability. A nil return means the inclusion proof checked out.
	VerifyInclusion(ctx context.Context, r *Receipt) error
}

// VerifyOptions configures Verify (spec.md §4.2.2/§4.2.3).
type VerifyOptions struct {
	// Profile is the verifier's requested profile. The effective profile
	// is the stricter of this and the profile the receipt's version
	// targets (spec.md §4.2.3). Defaults to ProfileDefault if empty.
	Profile Profile

	// Now overrides the wall clock for the timestamp check; defaults to
	// time.Now() when zero. Exists so tests can hit exact boundaries.
	Now time.Time

	// RequireLog forces the log-inclusion check even under a profile that
	// wouldn't otherwise require it.
	RequireLog bool

	// LogVerifier performs the log-inclusion check when RequireLog is set
	// or the effective profile requires log inclusion, or when the
	// receipt carries a LogInclusion the caller wants checked regardless.
	LogVerifier LogVerifier

	// Ctx bounds any log lookup LogVerifier performs.
	Ctx context.Context
}

// VerificationResult is the flat, typed outcome of Verify (spec.md §4.2.2,
// §7: "verification errors are reported as a flat list ... the verifier
// never retries on its own").
type VerificationResult struct {
	Valid   bool                 `json:"valid"`
	Errors  []VerificationError  `json:"errors"`
	Profile Profile              `json:"profile,omitempty"`
}

func (v *VerificationResult) add(code Code, msg, field string) {
	v.Errors = append(v.Errors, VerificationError{Code: code, Message: msg, Field: field})
}

// Verify checks r against the rules of spec.md §4.2.2. It is a pure
// function of (r, opts.Now, effective profile, optional log snapshot) and
// never panics on malformed input — every failure mode is expressed as an
// entry in the returned result's Errors slice.
func Verify(r *Receipt, opts VerifyOptions) *VerificationResult {
	res := &VerificationResult{Valid: true}

	if r == nil {
		res.Valid = false
		res.add(CodeSchemaMissing, "receipt is nil", "")
		return res
	}

	verifierProfile := opts.Profile
	if verifierProfile == "" {
		verifierProfile = ProfileDefault
	}

	schemaOK := checkSchema(r, res)

	signerProfile, versionKnown := KnownVersion(r.Version)
	if !versionKnown {
		res.add(CodeSchemaUnknownVer, fmt.Sprintf("unknown version %q", r.Version), "version")
	}

	effective := verifierProfile
	if versionKnown {
		effective = stricter(signerProfile, verifierProfile)
	}
	res.Profile = effective
	th := profileThresholds[effective]

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	tsOK := checkTimestamp(r, now, th, res)

	sigOK := checkSignature(r, res)

	structuralOK := schemaOK && versionKnown && tsOK && sigOK

	if structuralOK {
		checkPolicy(r, th, res)
		checkLog(r, th, opts, res)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func checkSchema(r *Receipt, res *VerificationResult) bool {
	ok := true
	if r.Version == "" {
		res.add(CodeSchemaMissing, "missing version", "version")
		ok = false
	}
	if r.CodeRef == "" {
		res.add(CodeSchemaMissing, "missing code_ref", "code_ref")
		ok = false
	}
	if r.TS == 0 {
		res.add(CodeSchemaMissing, "missing ts", "ts")
		ok = false
	}
	if len(r.Nonce) != NonceSize {
		res.add(CodeSchemaBadType, fmt.Sprintf("nonce must be %d bytes", NonceSize), "nonce")
		ok = false
	}
	if len(r.InputHash) != 32 {
		res.add(CodeSchemaBadType, "input_hash must be 32 bytes", "input_hash")
		ok = false
	}
	if len(r.OutputHash) != 32 {
		res.add(CodeSchemaBadType, "output_hash must be 32 bytes", "output_hash")
		ok = false
	}
	if len(r.PubKey) != ed25519.PublicKeySize {
		res.add(CodeSchemaBadType, "pubkey has invalid length", "pubkey")
		ok = false
	}
	if len(r.Sig) != ed25519.SignatureSize {
		res.add(CodeSchemaBadType, "sig has invalid length", "sig")
		ok = false
	}
	if r.KeyErasure != nil && r.KeyErasure.Scheme != "counter+seal@tee" && r.KeyErasure.Scheme != "sw-sim" {
		res.add(CodeSchemaBadType, fmt.Sprintf("unknown key_erasure scheme %q", r.KeyErasure.Scheme), "key_erasure")
		ok = false
	}
	return ok
}

func checkTimestamp(r *Receipt, now time.Time, th thresholds, res *VerificationResult) bool {
	if r.TS <= 0 {
		res.add(CodeTSMalformed, "ts must be a positive integer", "ts")
		return false
	}
	ts := time.UnixMilli(r.TS)
	age := now.Sub(ts)
	skew := ts.Sub(now)

	ok := true
	if skew > th.maxSkew {
		res.add(CodeAgeFuture, fmt.Sprintf("ts is %s ahead of now, max skew %s", skew, th.maxSkew), "ts")
		ok = false
	} else if age > th.maxAge {
		res.add(CodeAgeExpired, fmt.Sprintf("receipt age %s exceeds max age %s", age, th.maxAge), "ts")
		ok = false
	}
	return ok
}

func checkSignature(r *Receipt, res *VerificationResult) bool {
	if len(r.PubKey) != ed25519.PublicKeySize || len(r.Sig) != ed25519.SignatureSize {
		// Already reported by checkSchema; don't double-report SIG_INVALID
		// for a structurally malformed key/sig.
		return false
	}
	preimage, err := signingPreimage(r)
	if err != nil {
		res.add(CodeEncUnsupportedT, fmt.Sprintf("failed to canonicalize signed fields: %v", err), "")
		return false
	}
	if !ed25519.Verify(ed25519.PublicKey(r.PubKey), preimage, r.Sig) {
		res.add(CodeSigInvalid, "signature does not verify under pubkey", "sig")
		return false
	}
	return true
}

func checkPolicy(r *Receipt, th thresholds, res *VerificationResult) {
	if th.requirePolicy && len(r.PolicyIDs) == 0 {
		res.add(CodePolicyDenied, "profile requires at least one policy_id", "policy_ids")
	}
}

func checkLog(r *Receipt, th thresholds, opts VerifyOptions, res *VerificationResult) {
	requireLog := th.requireLog || opts.RequireLog
	if r.LogInclusion == nil {
		if requireLog {
			res.add(CodeLogMissing, "profile requires log inclusion but receipt has none", "log_inclusion")
		}
		return
	}
	if opts.LogVerifier == nil {
		if requireLog {
			res.add(CodeLogUnavailable, "log inclusion present but no LogVerifier configured", "log_inclusion")
		}
		return
	}
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := opts.LogVerifier.VerifyInclusion(ctx, r); err != nil {
		if ve, ok := err.(VerificationError); ok {
			res.Errors = append(res.Errors, ve)
		} else {
			res.add(CodeLogUnavailable, err.Error(), "log_inclusion")
		}
	}
}
