package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

const keyPrefix = "ratelimit"

// maxIdentifierLength keeps storage keys bounded; longer identifiers are hashed.
const maxIdentifierLength = 64

// WindowIndex returns floor(now / window) in milliseconds since the Unix epoch.
func WindowIndex(now time.Time, window time.Duration) int64 {
	ms := window.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return now.UnixMilli() / ms
}

// WindowEnd returns the exclusive end of the fixed window containing now.
func WindowEnd(now time.Time, window time.Duration) time.Time {
	ms := window.Milliseconds()
	if ms <= 0 {
		return now
	}
	return time.UnixMilli((WindowIndex(now, window) + 1) * ms)
}

// Key builds ratelimit:{resource}:{tier}:{identifier}:{index}.
func Key(res tier.Resource, t tier.Tier, identifier string, index int64) string {
	var b strings.Builder
	b.Grow(len(keyPrefix) + len(res) + len(t) + maxIdentifierLength + 24)
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(string(res))
	b.WriteByte(':')
	b.WriteString(string(t))
	b.WriteByte(':')
	b.WriteString(normalizeIdentifier(identifier))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(index, 10))
	return b.String()
}

func normalizeIdentifier(id string) string {
	if len(id) <= maxIdentifierLength && !strings.ContainsRune(id, ':') {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:16])
}
