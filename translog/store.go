package translog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is the persisted log-entry quadruple of spec.md §3 ("Log entry
// (L)"): the 1-based leaf index Postgres assigned it, the code_ref and
// receipt_hash the caller submitted, the leaf_hash derived from
// receipt_hash, and the timestamp the row was written.
type Entry struct {
	LeafIndex   int64
	CodeRef     string
	ReceiptHash []byte
	LeafHash    []byte
	Timestamp   time.Time
}

// Store is the Postgres-backed persistence layer for the three tables of
// spec.md §6 (entries, roots, keys), grounded on
// certenIO-certen-validator/pkg/database's Client: pooled *sql.DB over
// lib/pq, embed-ed migration files applied in lexical order, a thin struct
// wrapping the pool rather than a full ORM.
type Store struct {
	db *sql.DB
}

// StoreConfig configures the connection pool, mirroring the teacher
// pack's DatabaseMaxConns/MinConns/MaxIdleTime/MaxLifetime knobs.
type StoreConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// OpenStore opens a pooled Postgres connection and applies migrations.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("translog: database URL cannot be empty")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("translog: open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("translog: ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying pool for callers that need direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("translog: read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("translog: read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("translog: apply migration %s: %w", name, err)
		}
	}
	return nil
}

// AppendEntry inserts a new leaf row inside tx and returns the leaf_index
// Postgres assigned it. leaf_index is an IDENTITY column (migrations/0001)
// rather than an application-supplied value, so the "next unused positive
// integer starting at 1" invariant of spec.md §3/§4.4.2 is enforced by the
// database itself, not by Go arithmetic a caller could get wrong — Log.Append
// still holds its own mutex for the duration of the transaction (spec.md
// §5's single-writer requirement), so the returned value is expected to
// equal the in-memory tree's next position, and Log.Append checks that.
func (s *Store) AppendEntry(ctx context.Context, tx *sql.Tx, codeRef string, receiptHash, leafHash []byte, ts time.Time) (int64, error) {
	var leafIndex int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO entries (code_ref, receipt_hash, leaf_hash, timestamp) VALUES ($1, $2, $3, $4) RETURNING leaf_index`,
		codeRef, receiptHash, leafHash, ts).Scan(&leafIndex)
	if err != nil {
		return 0, fmt.Errorf("translog: insert entry: %w", err)
	}
	return leafIndex, nil
}

// InsertRoot persists a newly issued SignedTreeHead inside tx.
func (s *Store) InsertRoot(ctx context.Context, tx *sql.Tx, sth *SignedTreeHead) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO roots (tree_size, root_hash, timestamp, kid, signature) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tree_size) DO NOTHING`,
		sth.TreeSize, sth.RootHash, sth.Timestamp, sth.KID, sth.Signature)
	if err != nil {
		return fmt.Errorf("translog: insert root at size %d: %w", sth.TreeSize, err)
	}
	return nil
}

// BeginAppend starts the transaction the append protocol (spec.md §4.4.3)
// runs inside: insert entry, compute new root, insert root, commit.
func (s *Store) BeginAppend(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// LoadAllLeafHashes hydrates the in-memory tree cache at startup, ordered
// by leaf_index.
func (s *Store) LoadAllLeafHashes(ctx context.Context) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT leaf_hash FROM entries ORDER BY leaf_index ASC`)
	if err != nil {
		return nil, fmt.Errorf("translog: load leaf hashes: %w", err)
	}
	defer rows.Close()
	var out [][]byte
	for rows.Next() {
		var h []byte
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("translog: scan leaf hash: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Entry returns the log entry quadruple stored at leafIndex (spec.md §3
// "Log entry (L)": code_ref, receipt_hash, timestamp, leaf_hash).
func (s *Store) Entry(ctx context.Context, leafIndex int64) (*Entry, error) {
	e := &Entry{LeafIndex: leafIndex}
	err := s.db.QueryRowContext(ctx,
		`SELECT code_ref, receipt_hash, leaf_hash, timestamp FROM entries WHERE leaf_index = $1`, leafIndex).
		Scan(&e.CodeRef, &e.ReceiptHash, &e.LeafHash, &e.Timestamp)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("translog: no entry at index %d: %w", leafIndex, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("translog: load entry %d: %w", leafIndex, err)
	}
	return e, nil
}

// LatestRoot returns the most recently issued SignedTreeHead, if any.
func (s *Store) LatestRoot(ctx context.Context) (*SignedTreeHead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT tree_size, root_hash, timestamp, kid, signature FROM roots ORDER BY tree_size DESC LIMIT 1`)
	sth := &SignedTreeHead{}
	err := row.Scan(&sth.TreeSize, &sth.RootHash, &sth.Timestamp, &sth.KID, &sth.Signature)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("translog: load latest root: %w", err)
	}
	return sth, nil
}

// UpsertKey persists a key's current lifecycle state, including the
// created_at/expires_at/revoked_at stamps spec.md's "Log key record"
// requires.
func (s *Store) UpsertKey(ctx context.Context, rec KeyRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keys (kid, public_key, state, created_at, expires_at, revoked_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (kid) DO UPDATE SET state = EXCLUDED.state, expires_at = EXCLUDED.expires_at,
		   revoked_at = EXCLUDED.revoked_at, updated_at = now()`,
		rec.KID, []byte(rec.PublicKey), string(rec.State), rec.CreatedAt, rec.ExpiresAt, rec.RevokedAt)
	if err != nil {
		return fmt.Errorf("translog: upsert key %s: %w", rec.KID, err)
	}
	return nil
}

// AllKeys returns every persisted key record, for the §6 "keys" operation.
func (s *Store) AllKeys(ctx context.Context) ([]KeyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kid, public_key, state, created_at, expires_at, revoked_at FROM keys ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("translog: load keys: %w", err)
	}
	defer rows.Close()
	var out []KeyRecord
	for rows.Next() {
		var rec KeyRecord
		var pub []byte
		var state string
		if err := rows.Scan(&rec.KID, &pub, &state, &rec.CreatedAt, &rec.ExpiresAt, &rec.RevokedAt); err != nil {
			return nil, fmt.Errorf("translog: scan key: %w", err)
		}
		rec.PublicKey = pub
		rec.State = KeyState(state)
		out = append(out, rec)
	}
	return out, rows.Err()
}
