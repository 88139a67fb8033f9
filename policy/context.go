package policy

import "time"

// Redactor transforms raw input bytes, e.g. stripping recognized PII
// patterns, for policies like redact_pii that declare a Transform.
type Redactor func(input []byte) ([]byte, error)

// Context carries everything a Check or Transform needs to know about the
// call it is evaluating (spec.md §4.3's "policy evaluation context").
// None of these fields are signed; they only drive Enforce's decision and,
// for a Transform, the bytes that end up hashed into the receipt.
type Context struct {
	CodeRef     string
	Environment *Environment
	StartTime   time.Time
	Now         time.Time
	KeyErasure  *KeyErasure
	Redactor    Redactor
}

// Environment mirrors receipt.Environment so policy does not need to
// import the receipt package to read it.
type Environment struct {
	Region   string
	Provider string
}

// KeyErasure mirrors receipt.KeyErasure for the same reason.
type KeyErasure struct {
	Scheme   string
	Evidence string
}

func (c *Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}
