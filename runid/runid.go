// Package runid generates the identifiers that correlate observer events
// belonging to one engine run. ULIDs are the default: they are sortable, so
// an event stream ordered by run ID follows run start order. Both
// generators are pluggable for tests.
package runid

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func defaultULID() string {
	return ulid.Make().String()
}

func defaultUUID() string {
	return uuid.NewString()
}

var (
	_ulidGenerator = defaultULID
	_uuidGenerator = defaultUUID
)

// NewULID returns a new ULID string.
func NewULID() string {
	return _ulidGenerator()
}

// UseULID replaces the ULID generator. Passing nil restores the default.
func UseULID(fn func() string) {
	if fn == nil {
		fn = defaultULID
	}
	_ulidGenerator = fn
}

// NewUUID returns a new UUID v4 string.
func NewUUID() string {
	return _uuidGenerator()
}

// UseUUID replaces the UUID generator. Passing nil restores the default.
func UseUUID(fn func() string) {
	if fn == nil {
		fn = defaultUUID
	}
	_uuidGenerator = fn
}
