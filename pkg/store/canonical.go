package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"warden/pkg/rules"
)

// CanonicalHash returns the SHA-256 hex digest of the RFC 8785 JSON
// Canonicalization Scheme form of v (teacher: core/pkg/canonicalize,
// hand-rolled; here backed by the real gowebpki/jcs implementation
// instead of reinventing key-sorting and number formatting).
func CanonicalHash(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for canonicalization: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("jcs transform: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// IngestionIdempotencyKey derives a stable key from a firm and its
// policy text: two requests whose firm_name normalizes to the same key
// and whose policy_text is identical canonicalize to the same hash,
// regardless of incidental JSON field ordering. The API layer's
// IdempotencyMiddleware does not call it; that middleware keys its
// cache on the client-supplied Idempotency-Key header value.
func IngestionIdempotencyKey(firmName, policyText string) (string, error) {
	return CanonicalHash(struct {
		FirmName   string `json:"firm_name"`
		PolicyText string `json:"policy_text"`
	}{FirmName: rules.NormalizeFirmKey(firmName), PolicyText: policyText})
}
