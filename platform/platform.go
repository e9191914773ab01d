// Package platform isolates the handful of OS-level primitives the
// allocator family sits on top of: backing-store allocation, page size,
// time, and console output. linalloc, stackalloc, freelist and arena
// import it for MemAlloc, MemRealloc and PageSize; the containers and
// memkit.AddrOf and friends do not use it.
package platform

import (
	"fmt"
	"os"
	"time"

	"github.com/fagongzi/memkit/assert"
)

// MemAlloc allocates and zeroes n bytes. It is the bottom of every
// allocator's backing-buffer creation and calls assert.Fatalf — a fatal,
// unrecoverable exit, never a returned error — if n cannot be satisfied,
// keeping OOM fatal the way the original allocator family's sf_mem_alloc
// treats it.
func MemAlloc(n int) []byte {
	defer func() {
		if r := recover(); r != nil {
			assert.Fatalf("platform: out of memory allocating %d bytes: %v", n, r)
		}
	}()
	return make([]byte, n)
}

// MemRealloc grows or shrinks buf to n bytes, preserving the shared
// prefix. Like MemAlloc, failure is fatal.
func MemRealloc(buf []byte, n int) []byte {
	defer func() {
		if r := recover(); r != nil {
			assert.Fatalf("platform: out of memory reallocating to %d bytes: %v", n, r)
		}
	}()
	next := make([]byte, n)
	copy(next, buf)
	return next
}

// MemFree is a documentation no-op: Go's garbage collector reclaims the
// backing array once nothing references it. The call exists so that a
// future manual-memory backend has a single place to hook in.
func MemFree(buf []byte) {}

// Now returns the current time, including its monotonic clock reading.
func Now() time.Time {
	return time.Now()
}

// Sleep pauses the calling goroutine for d.
func Sleep(d time.Duration) {
	time.Sleep(d)
}

// ConsoleWrite writes a line to stdout. No allocator or container calls
// it.
func ConsoleWrite(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

// ConsoleWriteError writes a line to stderr.
func ConsoleWriteError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
