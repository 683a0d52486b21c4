package cmd

import (
	"bufio"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/debruijn/encoding/ctplinks"
	"github.com/grailbio/debruijn/links"
)

func newCmdLinks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "links",
		Short:    "Select a coverage threshold and clean low-coverage link subtrees",
		ArgsName: "graph.ctx links.ctp.gz",
	}
	output := cmd.Flags.String("o", "out.clean.ctp.gz", "Output .ctp.gz path")
	fpRate := cmd.Flags.Float64("fp-rate", 0.001, "Target false-positive rate for threshold selection")
	maxThreshold := cmd.Flags.Int("max-threshold", 0, "Upper bound on the selected threshold, 0 for none")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("links takes graph.ctx and links.ctp.gz, got %v", argv)
		}
		return runLinks(argv[0], argv[1], *output, *fpRate, *maxThreshold)
	})
	return cmd
}

func runLinks(graphPath, linksPath, output string, fpRate float64, maxThreshold int) error {
	ctx := vcontext.Background()
	g, _, err := loadGraph(ctx, graphPath, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	in, err := file.Open(ctx, linksPath)
	if err != nil {
		return fmt.Errorf("open %s: %v", linksPath, err)
	}
	_, ix, err := ctplinks.Read(bufio.NewReader(in.Reader(ctx)), g)
	if cerr := in.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	samples := links.LambdaEstimates(ix)
	threshold := links.SelectThreshold(samples, fpRate, maxThreshold)
	removed := links.Clean(ix, uint32(threshold))
	log.Printf("links: selected threshold %d from %d lambda samples, pruned %d subtrees", threshold, len(samples), removed)

	out, err := file.Create(ctx, output)
	if err != nil {
		return fmt.Errorf("create %s: %v", output, err)
	}
	bw := bufio.NewWriter(out.Writer(ctx))
	if err := ctplinks.Write(bw, g, ix); err != nil {
		_ = out.Close(ctx)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}
