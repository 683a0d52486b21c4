// Package ctplinks reads and writes the gzip-compressed, text-framed
// `.ctp.gz` link file format: a `key:value` header followed by one block
// per (node, direction) trie, each line's fields space-separated — the
// same "gzip wraps a plain line-oriented record stream" shape
// encoding/fastq's paired scanners read, applied to link records instead of
// reads.
package ctplinks

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
	"github.com/grailbio/debruijn/links"
)

// Header is the file's `key:value` preamble.
type Header struct {
	KmerSize          int
	NumColors         int
	NumKmersWithPaths int
	NumPaths          int
	PathBytes         int
}

func writeHeaderLine(w io.Writer, key string, value int) error {
	if _, err := fmt.Fprintf(w, "%s:%d\n", key, value); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctplinks: write header line %q", err, key)
	}
	return nil
}

type block struct {
	paths map[links.Dir][]links.Path
}

// Write serializes every (node, direction) trie in ix to w, gzip-compressed.
// Since links are color-agnostic once built (§3), a path's per-color count
// list carries its full coverage in color 0 and zero elsewhere: the format
// reserves room for a per-color breakdown that this implementation does not
// track separately, the one place this module's link representation is
// coarser than the file format it writes.
func Write(w io.Writer, g *graph.Graph, ix *links.Index) error {
	gz := gzip.NewWriter(w)
	bw := bufio.NewWriter(gz)

	blocks := map[graph.Handle]*block{}
	numPaths, pathBytes := 0, 0
	ix.EachRoot(func(h graph.Handle, dir links.Dir, root int32) {
		b, ok := blocks[h]
		if !ok {
			b = &block{paths: map[links.Dir][]links.Path{}}
			blocks[h] = b
		}
		paths := ix.Paths(root)
		b.paths[dir] = paths
		numPaths += len(paths)
		for _, p := range paths {
			pathBytes += len(p.Bases)
		}
	})

	header := Header{
		KmerSize:          g.Codec.K,
		NumColors:         g.NumColors(),
		NumKmersWithPaths: len(blocks),
		NumPaths:          numPaths,
		PathBytes:         pathBytes,
	}
	for _, kv := range []struct {
		key string
		val int
	}{
		{"kmer_size", header.KmerSize},
		{"num_colors", header.NumColors},
		{"num_kmers_with_paths", header.NumKmersWithPaths},
		{"num_paths", header.NumPaths},
		{"path_bytes", header.PathBytes},
	} {
		if err := writeHeaderLine(bw, kv.key, kv.val); err != nil {
			return err
		}
	}

	for h, b := range blocks {
		total := len(b.paths[links.Fwd]) + len(b.paths[links.Rev])
		if total == 0 {
			continue
		}
		kmerStr := g.Codec.Unpack(g.Table.KeyAt(h))
		if _, err := fmt.Fprintf(bw, "%s %d\n", kmerStr, total); err != nil {
			return dbgerr.E(dbgerr.IoError, "ctplinks: write kmer line", err)
		}
		for _, dir := range []links.Dir{links.Fwd, links.Rev} {
			tag := "F"
			if dir == links.Rev {
				tag = "R"
			}
			for _, p := range b.paths[dir] {
				counts := make([]string, g.NumColors())
				for i := range counts {
					counts[i] = "0"
				}
				if len(counts) > 0 {
					counts[0] = strconv.Itoa(int(p.Coverage))
				}
				junc := basesToString(p.Bases)
				if _, err := fmt.Fprintf(bw, "%s %d %s %s\n", tag, len(p.Bases), strings.Join(counts, " "), junc); err != nil {
					return dbgerr.E(dbgerr.IoError, "ctplinks: write path line", err)
				}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctplinks: flush", err)
	}
	if err := gz.Close(); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctplinks: close gzip writer", err)
	}
	return nil
}

var baseChar = [4]byte{'A', 'C', 'G', 'T'}

func basesToString(bases []kmer.Base) string {
	buf := make([]byte, len(bases))
	for i, b := range bases {
		buf[i] = baseChar[b]
	}
	return string(buf)
}

func stringToBases(s string) ([]kmer.Base, error) {
	out := make([]kmer.Base, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A':
			out[i] = kmer.A
		case 'C':
			out[i] = kmer.C
		case 'G':
			out[i] = kmer.G
		case 'T':
			out[i] = kmer.T
		default:
			return nil, dbgerr.E(dbgerr.FormatError, "ctplinks: invalid junction base %q", s[i])
		}
	}
	return out, nil
}

// Read parses a `.ctp.gz` stream, loading every path it contains into a
// fresh Index. Each persisted kmer string is resolved against g's table to
// recover the Handle the Index keys its tries by; a kmer that isn't in g is
// a FormatError (the link file and the graph it's meant to accompany have
// diverged).
func Read(r io.Reader, g *graph.Graph) (*Header, *links.Index, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: open gzip stream", err)
	}
	defer gz.Close()
	sc := bufio.NewScanner(gz)
	sc.Buffer(nil, 16*1024*1024)

	header := &Header{}
	fields := map[string]*int{
		"kmer_size":            &header.KmerSize,
		"num_colors":           &header.NumColors,
		"num_kmers_with_paths": &header.NumKmersWithPaths,
		"num_paths":            &header.NumPaths,
		"path_bytes":           &header.PathBytes,
	}
	for i := 0; i < 5; i++ {
		if !sc.Scan() {
			return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: truncated header")
		}
		key, val, err := parseHeaderLine(sc.Text())
		if err != nil {
			return nil, nil, err
		}
		dst, ok := fields[key]
		if !ok {
			return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: unknown header key %q", key)
		}
		*dst = val
	}
	if header.KmerSize != g.Codec.K {
		return nil, nil, dbgerr.E(dbgerr.InvalidInput, "ctplinks: file k=%d, graph k=%d", header.KmerSize, g.Codec.K)
	}

	ix := links.NewIndex(g.Codec)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: malformed kmer line %q", line)
		}
		kmerStr := parts[0]
		numPaths, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: malformed path count in %q", err, line)
		}
		km, err := g.Codec.Pack(kmerStr)
		if err != nil {
			return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: malformed kmer %q", err, kmerStr)
		}
		h := g.Table.Find(km)
		if h == graph.NotFound {
			return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: kmer %q not present in graph", kmerStr)
		}
		for i := 0; i < numPaths; i++ {
			if !sc.Scan() {
				return nil, nil, dbgerr.E(dbgerr.FormatError, "ctplinks: truncated path block for %q", kmerStr)
			}
			if err := loadPathLine(ix, h, sc.Text()); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, dbgerr.E(dbgerr.IoError, "ctplinks: scan", err)
	}
	return header, ix, nil
}

func loadPathLine(ix *links.Index, h graph.Handle, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return dbgerr.E(dbgerr.FormatError, "ctplinks: malformed path line %q", line)
	}
	var dir links.Dir
	switch fields[0] {
	case "F":
		dir = links.Fwd
	case "R":
		dir = links.Rev
	default:
		return dbgerr.E(dbgerr.FormatError, "ctplinks: bad direction tag %q", fields[0])
	}
	numJuncs, err := strconv.Atoi(fields[1])
	if err != nil {
		return dbgerr.E(dbgerr.FormatError, "ctplinks: malformed junction count in %q", err, line)
	}
	junctionStr := fields[len(fields)-1]
	countsFields := fields[2 : len(fields)-1]
	if len(junctionStr) != numJuncs {
		return dbgerr.E(dbgerr.FormatError, "ctplinks: junction string length mismatch in %q", line)
	}
	bases, err := stringToBases(junctionStr)
	if err != nil {
		return err
	}
	var total int
	for _, c := range countsFields {
		n, err := strconv.Atoi(c)
		if err != nil {
			return dbgerr.E(dbgerr.FormatError, "ctplinks: malformed per-color count in %q", err, line)
		}
		total += n
	}
	ix.InsertPath(h, dir, bases, uint32(total))
	return nil
}

func parseHeaderLine(line string) (string, int, error) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", 0, dbgerr.E(dbgerr.FormatError, "ctplinks: malformed header line %q", line)
	}
	val, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, dbgerr.E(dbgerr.FormatError, "ctplinks: malformed header value in %q", err, line)
	}
	return parts[0], val, nil
}
