package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ppiankov/cfpqc/internal/model"
)

const keyPrefix = "cfpqc:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from an arbitrary string
func CacheKey(s string) string {
	hash := sha256.Sum256([]byte(s))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// ReportKey identifies the evaluation of a draft on a given day under a given
// rule configuration. Deadline rules depend on the day, so it is part of the
// key; fingerprint should change whenever thresholds or the lexicon do.
func ReportKey(draft model.Draft, today time.Time, fingerprint string) string {
	payload, err := json.Marshal(draft)
	if err != nil {
		// Draft has only plain fields; fall back to the visible text
		payload = []byte(draft.Text() + draft.SubmitURL)
	}
	return CacheKey(string(payload) + "|" + today.Format("2006-01-02") + "|" + fingerprint)
}

// Fingerprint hashes any JSON-serializable configuration into a short string
func Fingerprint(v interface{}) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:8])
}
