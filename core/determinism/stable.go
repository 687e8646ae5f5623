// Package determinism provides helpers that keep evaluation output stable
// across runs: ordered map iteration and content hashes of inputs.
package determinism

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
)

// SortedKeys returns the keys of m in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RangeSorted calls fn for each entry of m in key order until fn returns false
func RangeSorted[K cmp.Ordered, V any](m map[K]V, fn func(K, V) bool) {
	for _, k := range SortedKeys(m) {
		if !fn(k, m[k]) {
			return
		}
	}
}

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// HashJSON hashes the JSON encoding of v. encoding/json writes map keys in
// sorted order, so equal values hash equally.
func HashJSON(v interface{}) (ContentHash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ContentHash{}, err
	}
	return ComputeHash(data), nil
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 16 hex characters
func (h ContentHash) Short() string {
	return h.Hex()[:16]
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Short() + "..."
}
