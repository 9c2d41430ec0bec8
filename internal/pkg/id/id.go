package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time, which the command queue relies on: commands keyed by ULID
// come back from a Query already in enqueue order.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
