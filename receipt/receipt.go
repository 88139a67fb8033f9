// Package receipt implements C2 of TECP: building and verifying the
// signed, self-contained attestations defined in spec.md §3/§4.2. It
// depends only on canon (the signing preimage) and crypto/ed25519 +
// crypto/sha256 (the mandated primitives) — never on the policy or
// transparency-log packages directly, so a caller can use receipts without
// either of those subsystems. Where this package needs a policy decision or
// a log lookup, it asks for a narrow interface instead of importing the
// concrete package (see Enforcer and LogVerifier).
package receipt

import "encoding/base64"

// KeyErasure is the optional declared key-erasure scheme (spec.md §3).
type KeyErasure struct {
	Scheme   string `json:"scheme"`
	Evidence string `json:"evidence"`
}

// Environment is the optional declared execution environment (spec.md §3).
type Environment struct {
	Region   string `json:"region,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// MerkleProof mirrors the inclusion proof shape of spec.md §6 so a Receipt
// can embed one without importing the translog package. cmd/tecp's
// submitToLog copies a translog.Proof's fields into this shape when
// attaching a log_inclusion field.
type MerkleProof struct {
	LeafIndex int64    `json:"leaf_index"`
	AuditPath [][]byte `json:"audit_path"`
	TreeSize  int64    `json:"tree_size"`
	RootHash  []byte   `json:"root_hash"`
}

// LogInclusion anchors a Receipt in a transparency log (spec.md §3). It is
// never part of the signed field set; it is attached post-signing.
type LogInclusion struct {
	LeafIndex   int64       `json:"leaf_index"`
	MerkleProof MerkleProof `json:"merkle_proof"`
	LogRoot     []byte      `json:"log_root"`
}

// Receipt is the signed, self-contained record defined by spec.md §3.
// JSON struct tags give the §6 transport envelope "for free": []byte
// fields marshal as standard base64 via encoding/json, matching the spec's
// "hashes are base64; signatures are base64" requirement without custom
// marshalers.
type Receipt struct {
	Version      string            `json:"version"`
	CodeRef      string            `json:"code_ref"`
	TS           int64             `json:"ts"`
	Nonce        []byte            `json:"nonce"`
	InputHash    []byte            `json:"input_hash"`
	OutputHash   []byte            `json:"output_hash"`
	PolicyIDs    []string          `json:"policy_ids"`
	Sig          []byte            `json:"sig"`
	PubKey       []byte            `json:"pubkey"`
	KeyErasure   *KeyErasure       `json:"key_erasure,omitempty"`
	Environment  *Environment      `json:"environment,omitempty"`
	LogInclusion *LogInclusion     `json:"log_inclusion,omitempty"`
	Ext          map[string]any    `json:"ext,omitempty"`
}

// InputHashB64 and OutputHashB64 are convenience accessors matching the
// wire encoding of spec.md §3, useful for logging without reaching for
// encoding/base64 at every call site.
func (r *Receipt) InputHashB64() string  { return base64.StdEncoding.EncodeToString(r.InputHash) }
func (r *Receipt) OutputHashB64() string { return base64.StdEncoding.EncodeToString(r.OutputHash) }

// ReceiptHash returns SHA-256 of the canonical receipt bytes, the value a
// transparency log anchors (spec.md §3, "Log entry"). It is the caller's
// job to call this only on a receipt that has already verified (or that
// the caller trusts), since it canonicalizes whatever is in r including an
// unverified signature.
func (r *Receipt) ReceiptHash() ([]byte, error) {
	b, err := canonicalReceiptBytesForHash(r)
	if err != nil {
		return nil, err
	}
	return sha256Sum(b), nil
}
