// Package keytable holds the canonical table of recognized logical keys:
// a dense sequence indexed directly by HID usage code, each entry carrying
// a human-readable name, an ignore flag, and the slot the element resolver
// binds a driver cookie into.
package keytable

import (
	"errors"

	"kbstate/internal/hiddev"
)

// Size is the number of entries in a populated table, including the
// placeholder at index 0. Usage codes at or beyond Size are outside the
// table's interest and are silently ignored by Bind.
const Size = 250

// Sentinel errors returned by table operations.
var (
	// ErrAlreadyPopulated is returned when Populate is called on a table
	// that already holds entries. This is a programming error, not a
	// runtime condition.
	ErrAlreadyPopulated = errors.New("keytable: populate called twice")

	// ErrDuplicateBinding is returned when Bind targets a key whose cookie
	// slot is already set. The first binding is kept either way; callers in
	// debug mode escalate, otherwise they ignore it.
	ErrDuplicateBinding = errors.New("keytable: usage already bound")
)

// Key is one recognized logical key.
type Key struct {
	// Usage is the key's stable usage code; it equals the key's index in
	// the table.
	Usage uint32

	// Name is a human-readable label, for diagnostics only.
	Name string

	// Cookie is the driver-assigned element handle, bound at most once by
	// the element resolver. Zero means unresolved.
	Cookie hiddev.Cookie

	// Ignored excludes the key from polling, queueing, and the resolution
	// success count. The flag is fixed at populate time.
	Ignored bool
}

// Resolved reports whether the key has a bound element handle.
func (k *Key) Resolved() bool {
	return k.Cookie != 0
}

// Table is the per-session key table. It is populated exactly once and is
// not safe for concurrent use; the session owns it.
type Table struct {
	keys []Key
}

// New returns an empty, unpopulated table.
func New() *Table {
	return &Table{}
}

// Populate fills the table with the full keyboard/keypad page: Size dense
// entries indexed by usage code. Index 0 is a permanent placeholder that is
// never matched against hardware. Calling Populate on an already-populated
// table returns ErrAlreadyPopulated and leaves the table untouched.
func (t *Table) Populate() error {
	if len(t.keys) != 0 {
		return ErrAlreadyPopulated
	}

	t.keys = make([]Key, Size)
	t.keys[0] = Key{Usage: 0, Name: "placeholder", Ignored: true}
	for i := 1; i < Size; i++ {
		t.keys[i] = Key{Usage: uint32(i), Name: "Reserved", Ignored: true}
	}
	for _, d := range keyDefs {
		t.keys[d.usage] = Key{Usage: d.usage, Name: d.name, Ignored: d.ignored}
	}
	return nil
}

// Populated reports whether Populate has run.
func (t *Table) Populated() bool {
	return len(t.keys) != 0
}

// Len returns the number of entries, zero before Populate.
func (t *Table) Len() int {
	return len(t.keys)
}

// Key returns the entry for a usage code, or nil when the code is outside
// the table.
func (t *Table) Key(usage uint32) *Key {
	if usage >= uint32(len(t.keys)) {
		return nil
	}
	return &t.keys[usage]
}

// Bind records the element handle for a usage code. Out-of-range usage
// codes are a normal occurrence on real hardware and are silently ignored.
// A duplicate binding keeps the first cookie and returns
// ErrDuplicateBinding.
func (t *Table) Bind(usage uint32, c hiddev.Cookie) error {
	if usage == 0 || usage >= uint32(len(t.keys)) {
		return nil
	}
	if t.keys[usage].Cookie != 0 {
		return ErrDuplicateBinding
	}
	t.keys[usage].Cookie = c
	return nil
}

// ResolvedCount returns the number of resolved, non-ignored keys. This is
// the score the resolver checks against its success threshold.
func (t *Table) ResolvedCount() int {
	n := 0
	for i := range t.keys {
		if t.keys[i].Resolved() && !t.keys[i].Ignored {
			n++
		}
	}
	return n
}

// Active calls fn for every resolved, non-ignored key, in usage order.
func (t *Table) Active(fn func(k *Key)) {
	for i := range t.keys {
		if t.keys[i].Resolved() && !t.keys[i].Ignored {
			fn(&t.keys[i])
		}
	}
}

// KeyByCookie finds the key a cookie was bound to, or nil. Used to name
// keys in drained queue events.
func (t *Table) KeyByCookie(c hiddev.Cookie) *Key {
	if c == 0 {
		return nil
	}
	for i := range t.keys {
		if t.keys[i].Cookie == c {
			return &t.keys[i]
		}
	}
	return nil
}
