package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashTitleCompany computes the cross-source deduplication fingerprint over
// the normalized (lowercased, trimmed) title and company. Two postings of the
// same role by the same company hash identically regardless of source.
func HashTitleCompany(title, company string) string {
	text := strings.ToLower(strings.TrimSpace(title)) + "_" + strings.ToLower(strings.TrimSpace(company))
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
