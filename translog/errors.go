package translog

import "errors"

// ErrNotFound is returned by Store lookups that find no matching row.
var ErrNotFound = errors.New("translog: not found")

// ErrConcurrentAppend is returned (wrapped) by Log.Append when the
// leaf_index the database assigns does not match the in-memory tree's next
// position, which means another writer appended to the same tables
// (spec.md §5: "log writes are linearizable").
var ErrConcurrentAppend = errors.New("translog: concurrent append conflict, retry")
