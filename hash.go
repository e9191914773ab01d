package memkit

// fnv1aPrime and fnv1aOffsetBasis are the 64-bit FNV-1a constants used by
// every content hash in this module (seq.Hash, hashmap's default key
// hash), ported from original_source/include/dynamic_array.hpp and
// hashmap.hpp, both of which define the identical pair locally.
const (
	fnv1aPrime       uint64 = 1099511628211
	fnv1aOffsetBasis uint64 = 14695981039346656037
)

// HashBytes computes the 64-bit FNV-1a hash of data.
func HashBytes(data []byte) uint64 {
	h := fnv1aOffsetBasis
	for _, b := range data {
		h ^= uint64(b)
		h *= fnv1aPrime
	}
	return h
}
