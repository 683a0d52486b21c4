package graph

import "unsafe"

// wordsFromBytes reinterprets an anonymous-mmap'd byte buffer as a []uint64
// of length n, rounding the start up to an 8-byte boundary the way
// fusion/kmer_index.go rounds its hashtable region up to a hugepage
// boundary. buf must be at least n*8 bytes past the rounded start.
func wordsFromBytes(buf []byte, n int) []uint64 {
	start := (uintptr(unsafe.Pointer(&buf[0])) + 7) &^ 7
	return unsafe.Slice((*uint64)(unsafe.Pointer(start)), n)
}
