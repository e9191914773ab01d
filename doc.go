// Package memkit is a single-threaded memory-management layer: a family of
// pluggable byte allocators that share one contract, plus the two
// containers (a growable sequence and an open-addressing hash table) built
// to exchange storage through that contract.
//
// Every concrete allocator lives in its own subpackage (galloc, linalloc,
// stackalloc, freelist, arena) and implements the Allocator interface
// defined here. Containers (seq, hashmap) take an Allocator at construction
// and never reach for a global default themselves.
package memkit
