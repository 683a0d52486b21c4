// Package ctxgraph reads and writes the binary `.ctx` colored de Bruijn
// graph file format: a fixed header, a flat sequence of k-mer/cov/edge
// records in bucket order, and a repeated-magic footer, modeled on
// encoding/bam's .bai index codec (fixed-width binary.Read/Write fields,
// magic-checked header and footer).
package ctxgraph

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

// Magic is the fixed 6-byte header and footer tag.
var Magic = [6]byte{'C', 'O', 'R', 'T', 'E', 'X'}

// Version is the format version this package reads and writes.
const Version = 1

// ColorHeader is one color's metadata block within the file header.
type ColorHeader struct {
	SampleName       string
	ErrorRateE16     uint32 // error rate * 1e16
	CleanedTips      bool
	CleanedUnitigs   bool
	UnitigCutoff     uint32
	UnitigKmerCutoff uint32
}

// Header is the fixed-format preamble of a .ctx file.
type Header struct {
	K              uint32
	WordsPerKmer   uint32
	Colors         uint32
	MeanReadLength uint32
	TotalSequence  uint64
	ColorHeaders   []ColorHeader // len == Colors
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// WriteHeader writes h to w in the on-disk format.
func WriteHeader(w io.Writer, h *Header) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: write magic", err)
	}
	fields := []interface{}{
		uint32(Version), h.K, h.WordsPerKmer, h.Colors, h.MeanReadLength, h.TotalSequence,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return dbgerr.E(dbgerr.IoError, "ctxgraph: write header field", err)
		}
	}
	if uint32(len(h.ColorHeaders)) != h.Colors {
		return dbgerr.E(dbgerr.InvalidInput, "ctxgraph: WriteHeader: %d color headers, Colors=%d", len(h.ColorHeaders), h.Colors)
	}
	for _, ch := range h.ColorHeaders {
		if _, err := io.WriteString(w, ch.SampleName); err != nil {
			return dbgerr.E(dbgerr.IoError, "ctxgraph: write sample name", err)
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return dbgerr.E(dbgerr.IoError, "ctxgraph: write sample name terminator", err)
		}
		colorFields := []interface{}{
			ch.ErrorRateE16, boolToU8(ch.CleanedTips), boolToU8(ch.CleanedUnitigs),
			ch.UnitigCutoff, ch.UnitigKmerCutoff,
		}
		for _, f := range colorFields {
			if err := binary.Write(w, binary.LittleEndian, f); err != nil {
				return dbgerr.E(dbgerr.IoError, "ctxgraph: write color header field", err)
			}
		}
	}
	return nil
}

// ReadHeader reads a Header from r, validating the magic and version.
func ReadHeader(r io.Reader) (*Header, error) {
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, dbgerr.E(dbgerr.IoError, "ctxgraph: read magic", err)
	}
	if magic != Magic {
		return nil, dbgerr.E(dbgerr.FormatError, "ctxgraph: bad magic %q", string(magic[:]))
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, dbgerr.E(dbgerr.IoError, "ctxgraph: read version", err)
	}
	if version != Version {
		return nil, dbgerr.E(dbgerr.FormatError, "ctxgraph: unsupported version %d", version)
	}
	h := &Header{}
	for _, f := range []*uint32{&h.K, &h.WordsPerKmer, &h.Colors, &h.MeanReadLength} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, dbgerr.E(dbgerr.IoError, "ctxgraph: read header field", err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &h.TotalSequence); err != nil {
		return nil, dbgerr.E(dbgerr.IoError, "ctxgraph: read total sequence", err)
	}
	br := bufio.NewReader(r)
	h.ColorHeaders = make([]ColorHeader, h.Colors)
	for i := range h.ColorHeaders {
		name, err := br.ReadString(0)
		if err != nil {
			return nil, dbgerr.E(dbgerr.IoError, "ctxgraph: read sample name", err)
		}
		ch := &h.ColorHeaders[i]
		ch.SampleName = name[:len(name)-1] // drop the NUL terminator
		var cleanedTips, cleanedUnitigs uint8
		for _, f := range []interface{}{&ch.ErrorRateE16, &cleanedTips, &cleanedUnitigs, &ch.UnitigCutoff, &ch.UnitigKmerCutoff} {
			if err := binary.Read(br, binary.LittleEndian, f); err != nil {
				return nil, dbgerr.E(dbgerr.IoError, "ctxgraph: read color header field", err)
			}
		}
		ch.CleanedTips = cleanedTips != 0
		ch.CleanedUnitigs = cleanedUnitigs != 0
	}
	return h, nil
}

// record is one flat on-disk node: its k-mer words followed by per-color
// coverage and edge bytes, in that order.
func writeRecord(w io.Writer, words []uint64, cov []uint32, edges []uint8) error {
	if err := binary.Write(w, binary.LittleEndian, words); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: write record kmer", err)
	}
	if err := binary.Write(w, binary.LittleEndian, cov); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: write record coverage", err)
	}
	if _, err := w.Write(edges); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: write record edges", err)
	}
	return nil
}

func readRecord(r io.Reader, wordsPerKmer, numColors int, words []uint64, cov []uint32, edges []uint8) error {
	if err := binary.Read(r, binary.LittleEndian, words); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, cov); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: read record coverage", err)
	}
	if _, err := io.ReadFull(r, edges); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: read record edges", err)
	}
	return nil
}

// Write serializes g's non-empty buckets in bucket order, with a header
// built from k, colorHeaders and meanReadLength/totalSequence.
func Write(w io.Writer, g *graph.Graph, colorHeaders []ColorHeader, meanReadLength uint32, totalSequence uint64) error {
	numColors := g.NumColors()
	header := &Header{
		K:              uint32(g.Codec.K),
		WordsPerKmer:   uint32(g.Codec.Words()),
		Colors:         uint32(numColors),
		MeanReadLength: meanReadLength,
		TotalSequence:  totalSequence,
		ColorHeaders:   colorHeaders,
	}
	if err := WriteHeader(w, header); err != nil {
		return err
	}
	cov := make([]uint32, numColors)
	edges := make([]uint8, numColors)
	var writeErr error
	g.Table.Each(func(h graph.Handle, km kmer.Kmer) {
		if writeErr != nil {
			return
		}
		for c := 0; c < numColors; c++ {
			cov[c] = uint32(g.Colors.Coverage(h, c))
			edges[c] = uint8(g.Colors.Edges(h, c))
		}
		writeErr = writeRecord(w, km.Words(), cov, edges)
	})
	if writeErr != nil {
		return writeErr
	}
	if _, err := w.Write(Magic[:]); err != nil {
		return dbgerr.E(dbgerr.IoError, "ctxgraph: write footer magic", err)
	}
	return nil
}

// LoadFilter projects file colors into in-memory graph colors. SrcToDst[i]
// is the destination color for file color i, or -1 to drop it. If
// EmptyColours is set, Read zeroes each destination color it touches before
// merging in the file's first record; otherwise loaded values are merged
// (OR on edges, saturating add on coverage) into whatever the destination
// colors already hold.
type LoadFilter struct {
	SrcToDst     []int
	EmptyColours bool
}

// identityFilter returns a LoadFilter mapping file color i to graph color i.
func identityFilter(n int) LoadFilter {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return LoadFilter{SrcToDst: m}
}

// Read loads a .ctx file's body into g, which must already be allocated
// with g.Codec.K == header k and enough colors to hold filter's
// destinations. If filter is nil, file colors map 1:1 onto graph colors.
func Read(r io.Reader, g *graph.Graph, filter *LoadFilter) (*Header, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	header, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if int(header.K) != g.Codec.K {
		return nil, dbgerr.E(dbgerr.InvalidInput, "ctxgraph: file k=%d, graph k=%d", header.K, g.Codec.K)
	}
	f := identityFilter(int(header.Colors))
	if filter != nil {
		f = *filter
	}
	if len(f.SrcToDst) != int(header.Colors) {
		return nil, dbgerr.E(dbgerr.InvalidInput, "ctxgraph: filter has %d entries, file has %d colors", len(f.SrcToDst), header.Colors)
	}
	if f.EmptyColours {
		cleared := make(map[int]bool)
		for _, dst := range f.SrcToDst {
			if dst >= 0 && !cleared[dst] {
				g.Colors.ClearColor(dst)
				cleared[dst] = true
			}
		}
	}

	words := make([]uint64, header.WordsPerKmer)
	cov := make([]uint32, header.Colors)
	edges := make([]uint8, header.Colors)
	recordSize := 8*int(header.WordsPerKmer) + 5*int(header.Colors)
	for {
		// Fewer bytes than one whole record left means only the footer remains.
		if next, _ := br.Peek(recordSize); len(next) < recordSize {
			break
		}
		if err := readRecord(br, int(header.WordsPerKmer), int(header.Colors), words, cov, edges); err != nil {
			return nil, err
		}
		km := kmer.FromWords(append([]uint64(nil), words...))
		h, _, insErr := g.Table.FindOrInsert(km)
		if insErr != nil {
			return nil, insErr
		}
		for src, dst := range f.SrcToDst {
			if dst < 0 {
				continue
			}
			if cov[src] > 0 {
				covDelta := cov[src]
				if covDelta > 255 {
					covDelta = 255
				}
				g.Colors.AddCoverage(h, dst, uint8(covDelta))
			}
			for _, b := range kmer.AllBases {
				if graph.EdgeMask(edges[src]).HasIncoming(uint8(b)) {
					g.Colors.SetEdge(h, dst, true, uint8(b))
				}
				if graph.EdgeMask(edges[src]).HasOutgoing(uint8(b)) {
					g.Colors.SetEdge(h, dst, false, uint8(b))
				}
			}
		}
	}
	if err := checkFooter(br); err != nil {
		return nil, err
	}
	return header, nil
}

func checkFooter(r io.Reader) error {
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return dbgerr.E(dbgerr.FormatError, "ctxgraph: truncated file, missing footer magic", err)
	}
	if magic != Magic {
		return dbgerr.E(dbgerr.FormatError, "ctxgraph: bad footer magic %q", string(magic[:]))
	}
	return nil
}
