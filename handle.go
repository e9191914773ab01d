package memkit

// Handle is a byte offset from an allocator's backing-buffer base. It stays
// valid across relocations of that buffer, unlike a []byte slice taken
// directly from it.
type Handle uint64

// InvalidHandle is the sentinel returned by handle operations that fail or
// are not supported by the allocator.
const InvalidHandle Handle = ^Handle(0)
