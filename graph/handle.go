package graph

// Handle identifies a node (a canonical k-mer's bucket) within a Table. It is
// stable for the lifetime of the table: buckets are never moved or
// compacted.
type Handle int64

// NotFound is returned by Find and neighbor lookups when no matching bucket
// exists.
const NotFound Handle = -1
