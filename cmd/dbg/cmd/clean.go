package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/debruijn/encoding/ctxgraph"
	"github.com/grailbio/debruijn/graph"
)

func newCmdClean() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "clean",
		Short:    "Remove low-coverage tips and supernode bubbles from a graph",
		ArgsName: "input.ctx",
	}
	output := cmd.Flags.String("o", "out.clean.ctx", "Output .ctx path")
	tipLen := cmd.Flags.Int("tip-len", 0, "Maximum removable tip length, 0 selects 2*k")
	coverageCutoff := cmd.Flags.Int("coverage-cutoff", 0, "Unitig coverage cutoff, 0 infers from the histogram")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("clean takes one input.ctx argument, got %v", argv)
		}
		return runClean(argv[0], *output, *tipLen, *coverageCutoff)
	})
	return cmd
}

func runClean(input, output string, tipLen, coverageCutoff int) error {
	ctx := vcontext.Background()
	g, header, err := loadGraph(ctx, input, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	stats, err := graph.Clean(g, graph.CleanOpts{
		ColorMask:       g.AllColorsMask(),
		TipLenThreshold: tipLen,
		CoverageCutoff:  coverageCutoff,
	}, nil)
	if err != nil {
		return err
	}
	log.Printf("clean: %+v", stats)

	colorHeaders := append([]ctxgraph.ColorHeader(nil), header.ColorHeaders...)
	for i := range colorHeaders {
		colorHeaders[i].CleanedTips = true
		colorHeaders[i].CleanedUnitigs = true
		colorHeaders[i].UnitigCutoff = uint32(stats.CoverageCutoffUsed)
	}
	return saveGraphWithHeaders(ctx, output, g, colorHeaders, header.MeanReadLength, header.TotalSequence)
}
