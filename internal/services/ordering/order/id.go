package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDPrefix starts every order identifier.
const IDPrefix = "ORD"

const idTimeLayout = "20060102150405"

// NewID returns "ORD" + now formatted to the second + "-" + six hex characters
// drawn from a random UUID. The suffix keeps two orders minted in the same
// second from sharing a key.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return IDPrefix + now.Format(idTimeLayout) + "-" + suffix
}

// IDTime extracts the second-resolution timestamp embedded in id, in loc.
func IDTime(id string, loc *time.Location) (time.Time, bool) {
	if !strings.HasPrefix(id, IDPrefix) || len(id) < len(IDPrefix)+len(idTimeLayout) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	stamp := id[len(IDPrefix) : len(IDPrefix)+len(idTimeLayout)]
	parsed, err := time.ParseInLocation(idTimeLayout, stamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
