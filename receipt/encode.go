package receipt

import (
	"crypto/sha256"

	"github.com/tecp-protocol/tecp-go/canon"
)

// signedFields reconstructs exactly the field set that was (or must be)
// signed: the receipt minus sig, minus log_inclusion, plus whichever
// optional extensions the receipt actually carries. Sign and Verify both
// route through this function so they can never drift apart (spec.md
// §4.2.2 step 4: "recompute canonical bytes over exactly the same signed
// field set").
func signedFields(r *Receipt) canon.Fields {
	f := canon.Fields{
		"version":     r.Version,
		"code_ref":    r.CodeRef,
		"ts":          r.TS,
		"nonce":       r.Nonce,
		"input_hash":  r.InputHash,
		"output_hash": r.OutputHash,
		"policy_ids":  policyIDsAsAny(r.PolicyIDs),
		"pubkey":      r.PubKey,
	}
	if r.KeyErasure != nil {
		ke := canon.Fields{"scheme": r.KeyErasure.Scheme, "evidence": r.KeyErasure.Evidence}
		f["key_erasure"] = ke
	}
	if r.Environment != nil {
		env := canon.Fields{}
		if r.Environment.Region != "" {
			env["region"] = r.Environment.Region
		}
		if r.Environment.Provider != "" {
			env["provider"] = r.Environment.Provider
		}
		f["environment"] = env
	}
	if r.Ext != nil {
		f["ext"] = r.Ext
	}
	return f
}

func policyIDsAsAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// signingPreimage returns the canonical CBOR bytes that are signed and
// re-verified (spec.md §4.1/§4.2).
func signingPreimage(r *Receipt) ([]byte, error) {
	return canon.Canonicalize(signedFields(r))
}

// canonicalReceiptBytesForHash canonicalizes the full receipt, including
// sig and pubkey (already part of signedFields) but not log_inclusion,
// as the input to the log's receipt_hash (spec.md §3, "Log entry").
// Because sig is itself part of what's hashed here, this must be called
// with the signature already attached — unlike the preimage, which never
// includes sig.
func canonicalReceiptBytesForHash(r *Receipt) ([]byte, error) {
	f := signedFields(r)
	f["sig"] = r.Sig
	return canon.Canonicalize(f)
}

func sha256Sum(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
