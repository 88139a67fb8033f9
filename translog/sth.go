package translog

import (
	"fmt"
	"time"

	"github.com/tecp-protocol/tecp-go/canon"
)

// SignedTreeHead is the periodically issued, signed commitment to the
// log's current state (spec.md §3 "STH").
type SignedTreeHead struct {
	RootHash  []byte `json:"root_hash"`
	TreeSize  int64  `json:"tree_size"`
	Timestamp int64  `json:"timestamp"`
	KID       string `json:"kid"`
	Signature []byte `json:"signature"`
}

// SignedTime is the response to the signed_time read operation: a signed
// attestation of "root_hash existed at timestamp" without committing to a
// tree size (spec.md §6, resolved preimage collision per SPEC_FULL.md §3.1).
type SignedTime struct {
	RootHash  []byte `json:"root_hash"`
	Timestamp int64  `json:"timestamp"`
	KID       string `json:"kid"`
	Signature []byte `json:"signature"`
}

const signedTimePurpose = "tecp-signed-time"

// sthPreimage builds the exact 4-field canonical CBOR preimage spec.md §3
// specifies for an STH: {root_hash, tree_size, timestamp, kid}.
func sthPreimage(rootHash []byte, treeSize, timestamp int64, kid string) ([]byte, error) {
	b, err := canon.Canonicalize(canon.Fields{
		"root_hash": rootHash,
		"tree_size": treeSize,
		"timestamp": timestamp,
		"kid":       kid,
	})
	if err != nil {
		return nil, fmt.Errorf("translog: canonicalize sth preimage: %w", err)
	}
	return b, nil
}

// signedTimePreimage adds a "purpose" domain separator absent from the STH
// preimage, so a signed-time response can never be replayed as an STH or
// vice versa (SPEC_FULL.md §3.1, resolving spec.md §9's open question).
func signedTimePreimage(rootHash []byte, timestamp int64, kid string) ([]byte, error) {
	b, err := canon.Canonicalize(canon.Fields{
		"purpose":   signedTimePurpose,
		"root_hash": rootHash,
		"timestamp": timestamp,
		"kid":       kid,
	})
	if err != nil {
		return nil, fmt.Errorf("translog: canonicalize signed-time preimage: %w", err)
	}
	return b, nil
}

// IssueSTH signs a fresh SignedTreeHead over rootHash/treeSize using key.
func IssueSTH(key *KeyStore, rootHash []byte, treeSize int64) (*SignedTreeHead, error) {
	ts := time.Now().UnixMilli()
	preimage, err := sthPreimage(rootHash, treeSize, ts, key.KID())
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(preimage)
	if err != nil {
		return nil, fmt.Errorf("translog: sign sth: %w", err)
	}
	return &SignedTreeHead{RootHash: rootHash, TreeSize: treeSize, Timestamp: ts, KID: key.KID(), Signature: sig}, nil
}

// VerifySTH checks sth's signature under pub.
func VerifySTH(sth *SignedTreeHead, pub func(kid string) []byte) error {
	preimage, err := sthPreimage(sth.RootHash, sth.TreeSize, sth.Timestamp, sth.KID)
	if err != nil {
		return err
	}
	key := pub(sth.KID)
	if key == nil {
		return fmt.Errorf("translog: unknown sth signing key %q", sth.KID)
	}
	ks := &KeyStore{pub: key}
	if !ks.Verify(preimage, sth.Signature) {
		return fmt.Errorf("translog: sth signature does not verify")
	}
	return nil
}

// IssueSignedTime signs a fresh SignedTime over rootHash using key.
func IssueSignedTime(key *KeyStore, rootHash []byte) (*SignedTime, error) {
	ts := time.Now().UnixMilli()
	preimage, err := signedTimePreimage(rootHash, ts, key.KID())
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(preimage)
	if err != nil {
		return nil, fmt.Errorf("translog: sign signed-time: %w", err)
	}
	return &SignedTime{RootHash: rootHash, Timestamp: ts, KID: key.KID(), Signature: sig}, nil
}

// VerifySignedTime checks st's signature under pub.
func VerifySignedTime(st *SignedTime, pub func(kid string) []byte) error {
	preimage, err := signedTimePreimage(st.RootHash, st.Timestamp, st.KID)
	if err != nil {
		return err
	}
	key := pub(st.KID)
	if key == nil {
		return fmt.Errorf("translog: unknown signed-time signing key %q", st.KID)
	}
	ks := &KeyStore{pub: key}
	if !ks.Verify(preimage, st.Signature) {
		return fmt.Errorf("translog: signed-time signature does not verify")
	}
	return nil
}
