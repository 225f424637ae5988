// Package privacy derives the one-way tokens that stand in for raw account
// identifiers in every externally visible record. Raw handles enter this
// package and only derived tokens leave it.
package privacy

import (
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/sha3"
)

// TokenLength is the hex length of every derived token.
const TokenLength = 16

// Derive returns the first 16 hex characters of the SHA3-256 digest over the
// parts. Each part is length-prefixed before it enters the digest, so tuple
// boundaries stay unambiguous no matter what bytes the parts contain:
// ("a|b","c") and ("a","b|c") digest differently. Deterministic: the same
// tuple always yields the same token.
func Derive(parts ...string) string {
	h := sha3.New256()
	for _, part := range parts {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))[:TokenLength]
}

// AccountToken derives the external token for a raw account handle.
func AccountToken(handle string) string {
	return Derive("account", handle)
}

// SwapID derives a swap identifier from the request tuple and a timestamp
// bucket. Identical requests inside the same bucket resolve to the same id,
// which is what makes the idempotency check possible.
func SwapID(accountToken string, amount int64, source, destination string, bucket time.Time) string {
	return Derive(
		"swap",
		accountToken,
		strconv.FormatInt(amount, 10),
		source,
		destination,
		strconv.FormatInt(bucket.Unix(), 10),
	)
}

// Bucket truncates t to the idempotency window.
func Bucket(t time.Time, window time.Duration) time.Time {
	if window <= 0 {
		window = time.Minute
	}
	return t.UTC().Truncate(window)
}
