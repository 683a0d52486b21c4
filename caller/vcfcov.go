package caller

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/debruijn/dbgerr"
	"github.com/grailbio/debruijn/graph"
)

// Record is one data line of a VCF: the fixed columns plus whatever
// trailing fields (QUAL, FILTER, INFO, FORMAT, samples...) followed REF/ALT
// verbatim, carried through unparsed.
type Record struct {
	Chrom string
	Pos   string
	ID    string
	Ref   string
	Alt   string
	Rest  []string
}

// ParseRecord parses one tab-separated VCF data line.
func ParseRecord(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		return nil, dbgerr.E(dbgerr.FormatError, "vcfcov: too few columns in %q", line)
	}
	return &Record{
		Chrom: fields[0],
		Pos:   fields[1],
		ID:    fields[2],
		Ref:   fields[3],
		Alt:   fields[4],
		Rest:  fields[5:],
	}, nil
}

func median32(xs []uint32) uint32 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]uint32(nil), xs...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// alleleMedianCoverage computes the median per-kmer coverage in color c for
// every overlapping k-mer of allele. Alleles shorter than k contribute no
// observations and report a median of 0.
func alleleMedianCoverage(g *graph.Graph, allele string, color int) uint32 {
	k := g.Codec.K
	if len(allele) < k {
		return 0
	}
	var covs []uint32
	for p := 0; p+k <= len(allele); p++ {
		km, err := g.Codec.Pack(allele[p : p+k])
		if err != nil {
			continue
		}
		h := g.Table.Find(km)
		if h == graph.NotFound {
			covs = append(covs, 0)
			continue
		}
		covs = append(covs, uint32(g.Colors.Coverage(h, color)))
	}
	return median32(covs)
}

// Annotation holds the per-color median coverage of a record's REF and ALT
// alleles.
type Annotation struct {
	RefCov, AltCov []uint32 // len == g.NumColors()
}

// Annotate computes rec's per-color median coverage annotation against g.
func Annotate(g *graph.Graph, rec *Record) Annotation {
	n := g.NumColors()
	a := Annotation{RefCov: make([]uint32, n), AltCov: make([]uint32, n)}
	for c := 0; c < n; c++ {
		a.RefCov[c] = alleleMedianCoverage(g, rec.Ref, c)
		a.AltCov[c] = alleleMedianCoverage(g, rec.Alt, c)
	}
	return a
}

func formatAnnotation(a Annotation) string {
	parts := make([]string, len(a.RefCov))
	for c := range parts {
		parts[c] = fmt.Sprintf("%d,%d", a.RefCov[c], a.AltCov[c])
	}
	return strings.Join(parts, ";")
}

// Annotator maintains a sliding window of at most maxNvars pending records,
// the bound named directly in the VCF coverage annotator's testable
// property: records are only annotated and flushed once the window is full
// or the input is exhausted, so memory use never exceeds maxNvars records
// regardless of input size.
type Annotator struct {
	g        *graph.Graph
	maxNvars int
	buf      []*Record
}

// NewAnnotator returns an Annotator bounded to maxNvars buffered records.
func NewAnnotator(g *graph.Graph, maxNvars int) *Annotator {
	return &Annotator{g: g, maxNvars: maxNvars}
}

// Push enqueues rec, returning the oldest buffered record (annotated) once
// the window is full.
func (a *Annotator) Push(rec *Record) (*Record, Annotation, bool) {
	a.buf = append(a.buf, rec)
	if len(a.buf) < a.maxNvars {
		return nil, Annotation{}, false
	}
	return a.pop()
}

func (a *Annotator) pop() (*Record, Annotation, bool) {
	head := a.buf[0]
	a.buf = a.buf[1:]
	return head, Annotate(a.g, head), true
}

// Flush drains every remaining buffered record, in order.
func (a *Annotator) Flush() []*Record {
	out := append([]*Record(nil), a.buf...)
	a.buf = nil
	return out
}

// Run streams VCF records from r to w, attaching a per-color median-coverage
// annotation column to every data line. Header lines (starting with '#')
// pass through untouched.
func Run(r io.Reader, w io.Writer, g *graph.Graph, maxNvars int) error {
	if maxNvars <= 0 {
		return dbgerr.E(dbgerr.InvalidInput, "vcfcov: maxNvars must be positive, got %d", maxNvars)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 16*1024*1024)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	ann := NewAnnotator(g, maxNvars)
	writeRecord := func(rec *Record, a Annotation) error {
		line := strings.Join(append([]string{rec.Chrom, rec.Pos, rec.ID, rec.Ref, rec.Alt}, rec.Rest...), "\t")
		_, err := fmt.Fprintf(bw, "%s\t%s\n", line, formatAnnotation(a))
		return err
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if _, err := fmt.Fprintln(bw, line); err != nil {
				return dbgerr.E(dbgerr.IoError, "vcfcov: write header line", err)
			}
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			return err
		}
		if flushed, a, ok := ann.Push(rec); ok {
			if err := writeRecord(flushed, a); err != nil {
				return dbgerr.E(dbgerr.IoError, "vcfcov: write record", err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return dbgerr.E(dbgerr.IoError, "vcfcov: scan", err)
	}
	for _, rec := range ann.Flush() {
		if err := writeRecord(rec, Annotate(g, rec)); err != nil {
			return dbgerr.E(dbgerr.IoError, "vcfcov: write record", err)
		}
	}
	return nil
}
