package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	DatasetHash Hash
	CodeVersion Hash
)

// Constructors
func NewDatasetHash(data []byte) DatasetHash { return DatasetHash(NewHash(data)) }
func NewCodeVersion(data []byte) CodeVersion { return CodeVersion(NewHash(data)) }

// String conversions
func (h DatasetHash) String() string { return Hash(h).String() }
func (h CodeVersion) String() string { return Hash(h).String() }

// ComputeDatasetHash produces a deterministic hash over named columns.
// Column order does not matter; values do.
func ComputeDatasetHash(columns map[string][]float64) DatasetHash {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var data strings.Builder
	for _, name := range names {
		data.WriteString(name)
		data.WriteString(":")
		for _, v := range columns[name] {
			data.WriteString(fmt.Sprintf("%g,", v))
		}
		data.WriteString("|")
	}

	return NewDatasetHash([]byte(data.String()))
}
