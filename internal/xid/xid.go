// Package xid generates unique identifiers with a readable type prefix,
// e.g. "tx-1749980000123456789-a1b2c3d4e5f6".
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns a prefixed identifier built from the current nanosecond
// timestamp and six random bytes. The timestamp keeps ids roughly sortable
// by creation time; the random suffix guards against same-nanosecond
// collisions. If the randomness source fails the id degrades to
// timestamp-only.
func New(prefix string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
