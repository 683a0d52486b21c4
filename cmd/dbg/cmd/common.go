// Package cmd implements the dbg command-line tool's subcommands, wired
// through v.io/x/lib/cmdline and github.com/grailbio/base/cmdutil the same
// way cmd/bio-pamtool/cmd wires its own subcommands.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/grailbio/debruijn/caller"
	"github.com/grailbio/debruijn/encoding/ctxgraph"
	"github.com/grailbio/debruijn/encoding/fasta"
	"github.com/grailbio/debruijn/encoding/fastq"
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// colorFile is one parsed "-p col:file" flag value.
type colorFile struct {
	Color int
	Path  string
}

// parseColorFiles parses a comma-separated list of "color:path" tokens,
// the format the -p flag and build/thread's positional arguments share.
func parseColorFiles(spec string) ([]colorFile, error) {
	if spec == "" {
		return nil, nil
	}
	var out []colorFile
	for _, tok := range strings.Split(spec, ",") {
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed color:file token %q", tok)
		}
		color, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("malformed color in %q: %v", tok, err)
		}
		out = append(out, colorFile{Color: color, Path: parts[1]})
	}
	return out, nil
}

// readSeqs loads every sequence (FASTA record or FASTQ read) out of path,
// auto-detecting format by trying FASTQ's leading '@' convention first and
// falling back to FASTA, the same leniency encoding/fastq's own scanner
// affords by validating only the framing bytes it actually needs.
func readSeqs(ctx context.Context, path string) ([]string, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
	}()

	br := bufio.NewReader(f.Reader(ctx))
	first, err := br.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("peek %s: %v", path, err)
	}

	if first[0] == '@' {
		var out []string
		sc := fastq.NewScanner(br, fastq.Seq)
		var r fastq.Read
		for sc.Scan(&r) {
			out = append(out, r.Seq)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("scan %s: %v", path, err)
		}
		return out, nil
	}

	fa, err := fasta.New(br)
	if err != nil {
		return nil, fmt.Errorf("parse fasta %s: %v", path, err)
	}
	var out []string
	for _, name := range fa.SeqNames() {
		n, err := fa.Len(name)
		if err != nil {
			return nil, err
		}
		seq, err := fa.Get(name, 0, n)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, nil
}

// readSeqRecords loads every record out of path the same way readSeqs
// detects FASTA/FASTQ, but keeps each record's ID for the read filter's
// dedup and output naming.
func readSeqRecords(ctx context.Context, path string) ([]caller.Seq, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
	}()

	br := bufio.NewReader(f.Reader(ctx))
	first, err := br.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("peek %s: %v", path, err)
	}

	if first[0] == '@' {
		var out []caller.Seq
		sc := fastq.NewScanner(br, fastq.ID|fastq.Seq)
		var r fastq.Read
		for sc.Scan(&r) {
			out = append(out, caller.Seq{ID: strings.TrimPrefix(r.ID, "@"), Seq: r.Seq})
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("scan %s: %v", path, err)
		}
		return out, nil
	}

	fa, err := fasta.New(br)
	if err != nil {
		return nil, fmt.Errorf("parse fasta %s: %v", path, err)
	}
	var out []caller.Seq
	for _, name := range fa.SeqNames() {
		n, err := fa.Len(name)
		if err != nil {
			return nil, err
		}
		seq, err := fa.Get(name, 0, n)
		if err != nil {
			return nil, err
		}
		out = append(out, caller.Seq{ID: name, Seq: seq})
	}
	return out, nil
}

// loadGraph opens an existing .ctx file at path, building the in-memory
// graph it was cut from (same k, same color count, filtered 1:1).
func loadGraph(ctx context.Context, path string, minCapacity int, loadFactor float64) (*graph.Graph, *ctxgraph.Header, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
	}()

	br := bufio.NewReader(f.Reader(ctx))
	peekHeader, err := ctxgraph.ReadHeader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %v", path, err)
	}

	codec, err := kmer.NewCodec(int(peekHeader.K))
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.New(codec, minCapacity, int(peekHeader.Colors), loadFactor)
	if err != nil {
		return nil, nil, err
	}

	f2, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("reopen %s: %v", path, err)
	}
	defer func() {
		if cerr := f2.Close(ctx); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
	}()
	filter := ctxgraph.LoadFilter{SrcToDst: identityMapping(int(peekHeader.Colors))}
	header, err := ctxgraph.Read(bufio.NewReader(f2.Reader(ctx)), g, &filter)
	if err != nil {
		return nil, nil, fmt.Errorf("read body of %s: %v", path, err)
	}
	return g, header, nil
}

func identityMapping(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// saveGraph writes g to path as a .ctx file, with per-color metadata
// derived from sampleNames (padded/truncated to g's color count).
func saveGraph(ctx context.Context, path string, g *graph.Graph, sampleNames []string, meanReadLength uint32, totalSequence uint64) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}
	colorHeaders := make([]ctxgraph.ColorHeader, g.NumColors())
	for i := range colorHeaders {
		name := fmt.Sprintf("color%d", i)
		if i < len(sampleNames) {
			name = sampleNames[i]
		}
		colorHeaders[i] = ctxgraph.ColorHeader{SampleName: name}
	}
	return writeGraphFile(ctx, out, g, colorHeaders, meanReadLength, totalSequence)
}

// saveGraphWithHeaders is saveGraph's variant for callers (clean) that need
// to set per-color metadata beyond the sample name, such as the
// cleaned-tips/cleaned-unitigs flags §4.6 attaches to a post-clean file.
func saveGraphWithHeaders(ctx context.Context, path string, g *graph.Graph, colorHeaders []ctxgraph.ColorHeader, meanReadLength uint32, totalSequence uint64) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return fmt.Errorf("create %s: %v", path, err)
	}
	return writeGraphFile(ctx, out, g, colorHeaders, meanReadLength, totalSequence)
}

func writeGraphFile(ctx context.Context, out file.File, g *graph.Graph, colorHeaders []ctxgraph.ColorHeader, meanReadLength uint32, totalSequence uint64) error {
	bw := bufio.NewWriter(out.Writer(ctx))
	if err := ctxgraph.Write(bw, g, colorHeaders, meanReadLength, totalSequence); err != nil {
		_ = out.Close(ctx)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}
