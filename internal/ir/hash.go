package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSolution = "giant/solution/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SolutionID computes the content-addressed ID of a solution.
// Two solutions with equal canonical forms share an ID regardless of map
// iteration order.
func SolutionID(s Solution) (string, error) {
	canonical, err := MarshalCanonical(map[string]any(s))
	if err != nil {
		return "", fmt.Errorf("SolutionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSolution, canonical), nil
}

// MustSolutionID is like SolutionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSolutionID(s Solution) string {
	id, err := SolutionID(s)
	if err != nil {
		panic(err)
	}
	return id
}
