// Package biosimd provides byte-array primitives for ASCII-encoded DNA
// sequence data, used by package kmer when packing and canonicalizing
// k-mers.
package biosimd
