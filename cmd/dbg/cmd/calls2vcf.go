package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdCalls2VCF() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "calls2vcf",
		Short: "Render bubble and breakpoint call tables as VCF records",
	}
	bubblesPath := cmd.Flags.String("bubbles", "", "bubbles.tsv from the bubbles subcommand")
	breakpointsPath := cmd.Flags.String("breakpoints", "", "breakpoints.tsv from the breakpoints subcommand")
	output := cmd.Flags.String("o", "out.vcf", "Output VCF path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runCalls2VCF(*bubblesPath, *breakpointsPath, *output)
	})
	return cmd
}

// commonPrefixLen returns the length of the longest shared prefix of a, b.
func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// commonSuffixLen returns the length of the longest shared suffix of a, b,
// without consuming more than min(len(a), len(b)) - reserve bytes from the
// front of either string (so it never overlaps an already-trimmed prefix).
func commonSuffixLen(a, b string, reserve int) int {
	i := 0
	for i < len(a)-reserve && i < len(b)-reserve && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

// parsimoniousAllelePair trims the longest shared prefix and suffix from a
// pair of bubble arms, the usual VCF normalization so REF/ALT carry only
// the differing core. If trimming would leave either allele empty, one
// prefix base is retained as a VCF anchor base.
func parsimoniousAllelePair(a, b string) (ref, alt string) {
	prefix := commonPrefixLen(a, b)
	suffix := commonSuffixLen(a, b, prefix)
	if (prefix+suffix >= len(a) || prefix+suffix >= len(b)) && prefix > 0 {
		prefix--
	}
	return a[prefix : len(a)-suffix], b[prefix : len(b)-suffix]
}

func writeVCFHeader(w *bufio.Writer) {
	fmt.Fprintln(w, "##fileformat=VCFv4.2")
	fmt.Fprintln(w, "##source=dbg calls2vcf")
	fmt.Fprintln(w, "##INFO=<ID=SVTYPE,Number=1,Type=String,Description=\"Type of call: BUBBLE or BREAKEND\">")
	fmt.Fprintln(w, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
}

func runCalls2VCF(bubblesPath, breakpointsPath, output string) error {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, output)
	if err != nil {
		return fmt.Errorf("create %s: %v", output, err)
	}
	bw := bufio.NewWriter(out.Writer(ctx))
	writeVCFHeader(bw)

	pos := 1
	if bubblesPath != "" {
		if err := appendBubbleRecords(bw, bubblesPath, &pos); err != nil {
			_ = out.Close(ctx)
			return err
		}
	}
	if breakpointsPath != "" {
		if err := appendBreakpointRecords(bw, breakpointsPath, &pos); err != nil {
			_ = out.Close(ctx)
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}

func appendBubbleRecords(bw *bufio.Writer, path string, pos *int) error {
	lines, err := readTSVDataLines(path)
	if err != nil {
		return err
	}
	for _, fields := range lines {
		if len(fields) < 4 {
			continue
		}
		arm1, arm2 := fields[2], fields[3]
		ref, alt := parsimoniousAllelePair(arm1, arm2)
		fmt.Fprintf(bw, "graph\t%d\t.\t%s\t%s\t.\tPASS\tSVTYPE=BUBBLE\n", *pos, ref, alt)
		*pos++
	}
	return nil
}

func appendBreakpointRecords(bw *bufio.Writer, path string, pos *int) error {
	lines, err := readTSVDataLines(path)
	if err != nil {
		return err
	}
	for _, fields := range lines {
		if len(fields) < 4 {
			continue
		}
		novelLen, _ := strconv.Atoi(fields[2])
		novelSeq := fields[3]
		fmt.Fprintf(bw, "graph\t%d\t.\tN\t<INS>\t.\tPASS\tSVTYPE=BREAKEND;SVLEN=%d;SEQ=%s\n", *pos, novelLen, novelSeq)
		*pos++
	}
	return nil
}

func readTSVDataLines(path string) ([][]string, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", path, err)
	}
	defer func() { _ = in.Close(ctx) }()
	sc := bufio.NewScanner(in.Reader(ctx))
	var out [][]string
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue // header line
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		out = append(out, strings.Split(line, "\t"))
	}
	return out, sc.Err()
}
