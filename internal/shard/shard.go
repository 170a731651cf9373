// Package shard selects a bucket for a key so that per-bucket maps stay
// small and contention on any single map is bounded.
package shard

import "hash/fnv"

// ForKey hashes key with fnv-32a and reduces it to a bucket index.
func ForKey(key string, bucketCount int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return ForHash(h.Sum32(), bucketCount)
}

// ForHash reduces a precomputed hash to a bucket index.
func ForHash(hash uint32, bucketCount int) int {
	if bucketCount <= 1 {
		return 0
	}
	return int(hash % uint32(bucketCount))
}
