package translog

import (
	"crypto/ed25519"
	cryptoRand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyState is the closed set of lifecycle states a log signing key can be
// in (spec.md §4.4.5): at most one active, at most one next, any number
// revoked.
type KeyState string

const (
	KeyStateNext    KeyState = "next"
	KeyStateActive  KeyState = "active"
	KeyStateRevoked KeyState = "revoked"
)

// KeyRecord is the persisted shape of a log signing key (spec.md §3 "Log
// key record": "(kid, public_key, status, created_at, expires_at?,
// revoked_at?)"). ExpiresAt and RevokedAt are nil until staged/rotated.
type KeyRecord struct {
	KID       string
	PublicKey ed25519.PublicKey
	State     KeyState
	CreatedAt time.Time
	ExpiresAt *time.Time
	RevokedAt *time.Time
}

// KeyStore holds a single Ed25519 private key plus its lifecycle state,
// generalized from the teacher's internal/wallet/keystore.go (generate /
// load-from-env / zeroizing Close / sign / verify) from secp256k1/EVM to
// Ed25519, the only scheme spec.md permits for any signature in the
// system. chainID/address/EIP-191/712 framing has no TECP analogue and is
// dropped; the lifecycle shape (random-or-env-sourced, zeroize on Close)
// survives unchanged.
type KeyStore struct {
	mu        sync.RWMutex
	kid       string
	priv      ed25519.PrivateKey
	pub       ed25519.PublicKey
	state     KeyState
	createdAt time.Time
	expiresAt *time.Time
	revokedAt *time.Time
}

// NewRandomKey generates a fresh Ed25519 signing key in the given state.
func NewRandomKey(state KeyState) (*KeyStore, error) {
	pub, priv, err := ed25519.GenerateKey(cryptoRand.Reader)
	if err != nil {
		return nil, fmt.Errorf("translog: generate key: %w", err)
	}
	return &KeyStore{kid: uuid.NewString(), priv: priv, pub: pub, state: state, createdAt: time.Now()}, nil
}

// KeyFromHex loads an Ed25519 private key from a 64-byte hex seed+pub
// encoding (with or without 0x prefix), mirroring the teacher's FromHex.
func KeyFromHex(kid, hexKey string, state KeyState) (*KeyStore, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("translog: bad hex key: %w", err)
	}
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("translog: expected %d-byte ed25519 private key, got %d", ed25519.PrivateKeySize, len(b))
	}
	priv := ed25519.PrivateKey(b)
	pub := priv.Public().(ed25519.PublicKey)
	if kid == "" {
		kid = uuid.NewString()
	}
	return &KeyStore{kid: kid, priv: priv, pub: pub, state: state, createdAt: time.Now()}, nil
}

// LoadKeyFromEnv reads a hex-encoded Ed25519 key from envName, generating
// and returning a fresh one (in KeyStateActive) if the variable is unset and
// allowGenerate is true, mirroring the teacher's LoadHexFromEnv. Either way
// the key is ready to hand to NewKeyRing as the active signing key.
func LoadKeyFromEnv(envName string, allowGenerate bool) (*KeyStore, error) {
	if hexKey := strings.TrimSpace(os.Getenv(envName)); hexKey != "" {
		return KeyFromHex("", hexKey, KeyStateActive)
	}
	if !allowGenerate {
		return nil, fmt.Errorf("translog: env %s not set and generation disabled", envName)
	}
	return NewRandomKey(KeyStateActive)
}

// KID returns the key's stable identifier, used as the "kid" field in STH
// and signed-time preimages.
func (k *KeyStore) KID() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.kid
}

// PublicKey returns a copy of the Ed25519 public key.
func (k *KeyStore) PublicKey() ed25519.PublicKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append(ed25519.PublicKey(nil), k.pub...)
}

// State returns the key's current lifecycle state.
func (k *KeyStore) State() KeyState {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

// Record returns the public KeyRecord view of this key.
func (k *KeyStore) Record() KeyRecord {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return KeyRecord{
		KID:       k.kid,
		PublicKey: append(ed25519.PublicKey(nil), k.pub...),
		State:     k.state,
		CreatedAt: k.createdAt,
		ExpiresAt: k.expiresAt,
		RevokedAt: k.revokedAt,
	}
}

// Sign signs preimage with the held private key.
func (k *KeyStore) Sign(preimage []byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.priv == nil {
		return nil, errors.New("translog: key closed")
	}
	return ed25519.Sign(k.priv, preimage), nil
}

// Verify checks sig against preimage using the held public key.
func (k *KeyStore) Verify(preimage, sig []byte) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return ed25519.Verify(k.pub, preimage, sig)
}

// Close best-effort zeroes the private key, mirroring the teacher's
// zeroizing Close.
func (k *KeyStore) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := range k.priv {
		k.priv[i] = 0
	}
	k.priv = nil
}

// KeyRing holds the at-most-one-active, at-most-one-next invariant of
// spec.md §4.4.5 and performs rotation.
type KeyRing struct {
	mu      sync.RWMutex
	active  *KeyStore
	next    *KeyStore
	revoked []*KeyStore
}

// NewKeyRing wraps an already-active key as the ring's starting point.
func NewKeyRing(active *KeyStore) *KeyRing {
	return &KeyRing{active: active}
}

// Active returns the current signing key, or nil if none is active.
func (r *KeyRing) Active() *KeyStore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// PrepareNext stages a freshly generated key as "next" ahead of a future
// rotation, replacing any prior staged key.
func (r *KeyRing) PrepareNext() (*KeyStore, error) {
	k, err := NewRandomKey(KeyStateNext)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = k
	return k, nil
}

// Rotate promotes "next" to "active" and demotes the current "active" key
// to "revoked", per spec.md §4.4.5. Returns an error if there is no
// staged next key — rotation never silently leaves the log unsigned.
func (r *KeyRing) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next == nil {
		return errors.New("translog: no staged next key to rotate in")
	}
	if r.active != nil {
		now := time.Now()
		r.active.mu.Lock()
		r.active.state = KeyStateRevoked
		r.active.revokedAt = &now
		r.active.mu.Unlock()
		r.revoked = append(r.revoked, r.active)
	}
	r.next.mu.Lock()
	r.next.state = KeyStateActive
	r.next.mu.Unlock()
	r.active = r.next
	r.next = nil
	return nil
}

// Records returns the KeyRecord view of every key the ring has ever held,
// for the §6 "keys" read operation.
func (r *KeyRing) Records() []KeyRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []KeyRecord
	if r.active != nil {
		out = append(out, r.active.Record())
	}
	if r.next != nil {
		out = append(out, r.next.Record())
	}
	for _, k := range r.revoked {
		out = append(out, k.Record())
	}
	return out
}
