package receipt

import (
	"crypto/ed25519"
	cryptoRand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NonceSize is the width of the anti-replay salt mixed into every receipt
// (spec.md §3).
const NonceSize = 16

// Signer holds the Ed25519 key used to issue receipts. It is the only
// component in the process allowed to touch the private key; it never logs
// it and zeroes it on Close. The shape (generate-or-load, zeroize on
// Close, Sign) is carried from the teacher's internal/receipts.SessionSigner,
// generalized from a single streaming session to TECP's longer-lived
// signer/profile model.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateSigner creates a fresh Ed25519 keypair for issuing receipts.
func GenerateSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(cryptoRand.Reader)
	if err != nil {
		return nil, fmt.Errorf("receipt: generate signer key: %w", err)
	}
	return &Signer{priv: priv, pub: pub}, nil
}

// NewSigner wraps an already-loaded Ed25519 private key.
func NewSigner(priv ed25519.PrivateKey) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("receipt: invalid private key size %d", len(priv))
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{priv: priv, pub: pub}, nil
}

// PublicKey returns a copy of the signer's Ed25519 public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), s.pub...)
}

// Fingerprint returns a short hex identifier for the signer's public key,
// convenient for logging without ever printing key material.
func (s *Signer) Fingerprint() string {
	sum := sha256.Sum256(s.pub)
	return hex.EncodeToString(sum[:8])
}

// PrivateKeyHex returns the private key as hex, for operators to persist
// into a secrets store at keygen time. WARNING: never log this value.
func (s *Signer) PrivateKeyHex() string {
	return hex.EncodeToString(s.priv)
}

// Close best-effort zeroes the private key in memory.
func (s *Signer) Close() {
	for i := range s.priv {
		s.priv[i] = 0
	}
}

// Enforcer is the narrow interface receipt.Signer needs from a policy
// runtime (spec.md §4.3). policy.Runtime satisfies this without receipt
// importing the policy package, keeping the two subsystems independently
// usable.
type Enforcer interface {
	Enforce(in EnforceInput) (EnforceResult, error)
}

// EnforceInput is everything CreateReceipt knows about the call that a
// policy's machine check might need (spec.md §4.3's evaluation context),
// passed by value so an Enforcer never needs to import this package's
// CreateOptions or reach back into the Signer.
type EnforceInput struct {
	PolicyIDs   []string
	Input       []byte
	CodeRef     string
	Environment *Environment
	KeyErasure  *KeyErasure
	StartTime   time.Time
}

// EnforceResult is the subset of policy.Result that Signer needs: whether
// the computation may proceed, the (possibly transformed) input to hash,
// and any violations to surface as SIGN_POLICY_DENIED.
type EnforceResult struct {
	Allowed          bool
	TransformedInput []byte
	Violations       []string
}

// CreateOptions configures CreateReceipt (spec.md §4.2.1).
type CreateOptions struct {
	CodeRef     string
	Input       []byte
	Output      []byte
	PolicyIDs   []string
	Profile     Profile
	KeyErasure  *KeyErasure
	Environment *Environment
	Ext         map[string]any

	// StartTime marks when the underlying computation began, for
	// enforcers with a TTL-style check (spec.md §4.3's "Now - StartTime").
	// Defaults to time.Now() when zero, which makes any TTL check trivially
	// pass — callers enforcing a TTL policy must set this explicitly.
	StartTime time.Time

	// Enforcer, if set, is run against PolicyIDs and Input before signing.
	// A nil Enforcer skips policy evaluation entirely (the caller is
	// expected to have already enforced policies out of band).
	Enforcer Enforcer
}

// CreateReceipt builds and signs a Receipt per spec.md §4.2.1. Input and
// Output must already be canonicalized byte buffers; this function never
// accepts structured values, closing the ambiguity spec.md §9 flags
// ("callers who pass structured objects must first canonicalize them").
func (s *Signer) CreateReceipt(opts CreateOptions) (*Receipt, error) {
	if s == nil || s.priv == nil {
		return nil, &SignError{Code: CodeSignNoKey, Message: "no signing key configured"}
	}

	input := opts.Input
	if opts.Enforcer != nil {
		startTime := opts.StartTime
		if startTime.IsZero() {
			startTime = time.Now()
		}
		res, err := opts.Enforcer.Enforce(EnforceInput{
			PolicyIDs:   opts.PolicyIDs,
			Input:       opts.Input,
			CodeRef:     opts.CodeRef,
			Environment: opts.Environment,
			KeyErasure:  opts.KeyErasure,
			StartTime:   startTime,
		})
		if err != nil {
			return nil, &SignError{Code: CodeSignPolicyDenied, Message: "policy runtime error", Wrapped: err}
		}
		if !res.Allowed || len(res.Violations) > 0 {
			return nil, &SignError{Code: CodeSignPolicyDenied, Message: fmt.Sprintf("policy violations: %v", res.Violations)}
		}
		if res.TransformedInput != nil {
			input = res.TransformedInput
		}
	}

	version, ok := profileVersion[opts.Profile]
	if !ok {
		version = profileVersion[ProfileDefault]
	}

	nonce := make([]byte, NonceSize)
	if _, err := cryptoRand.Read(nonce); err != nil {
		return nil, fmt.Errorf("receipt: generate nonce: %w", err)
	}

	inputHash := sha256Sum(input)
	outputHash := sha256Sum(opts.Output)

	r := &Receipt{
		Version:     version,
		CodeRef:     opts.CodeRef,
		TS:          time.Now().UnixMilli(),
		Nonce:       nonce,
		InputHash:   inputHash,
		OutputHash:  outputHash,
		PolicyIDs:   append([]string(nil), opts.PolicyIDs...),
		PubKey:      s.PublicKey(),
		KeyErasure:  opts.KeyErasure,
		Environment: opts.Environment,
		Ext:         opts.Ext,
	}

	preimage, err := signingPreimage(r)
	if err != nil {
		return nil, &SignError{Code: CodeEncUnsupportedT, Message: "failed to canonicalize signed fields", Wrapped: err}
	}

	r.Sig = ed25519.Sign(s.priv, preimage)
	return r, nil
}
