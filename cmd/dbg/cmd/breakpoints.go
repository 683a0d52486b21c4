package cmd

import (
	"bufio"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/debruijn/caller"
	"github.com/grailbio/debruijn/encoding/ctplinks"
	"github.com/grailbio/debruijn/links"
)

func newCmdBreakpoints() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "breakpoints",
		Short:    "Find novel intervals flanked by a reference color",
		ArgsName: "graph.ctx",
	}
	output := cmd.Flags.String("o", "out.breakpoints.tsv", "Output path")
	linksPath := cmd.Flags.String("p", "", "Optional .ctp.gz link file to resolve ambiguous branches")
	refColor := cmd.Flags.Int("ref-color", 0, "Index of the reference color")
	maxLen := cmd.Flags.Int("max-len", 500, "Maximum novel-interval length, in nodes")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("breakpoints takes one graph.ctx argument, got %v", argv)
		}
		return runBreakpoints(argv[0], *output, *linksPath, *refColor, *maxLen)
	})
	return cmd
}

func runBreakpoints(graphPath, output, linksPath string, refColor, maxLen int) error {
	ctx := vcontext.Background()
	g, _, err := loadGraph(ctx, graphPath, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	var ix *links.Index
	if linksPath != "" {
		in, err := file.Open(ctx, linksPath)
		if err != nil {
			return fmt.Errorf("open %s: %v", linksPath, err)
		}
		_, ix, err = ctplinks.Read(bufio.NewReader(in.Reader(ctx)), g)
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	bps := caller.FindBreakpoints(g, ix, g.AllColorsMask(), refColor, maxLen)
	log.Printf("breakpoints: found %d", len(bps))

	out, err := file.Create(ctx, output)
	if err != nil {
		return fmt.Errorf("create %s: %v", output, err)
	}
	bw := bufio.NewWriter(out.Writer(ctx))
	fmt.Fprintln(bw, "anchor\treentry\tnovel_len\tnovel_seq")
	for _, bp := range bps {
		seq := caller.Sequence(g, g.Codec, bp.Anchor, bp.Novel)
		fmt.Fprintf(bw, "%d\t%d\t%d\t%s\n", bp.Anchor, bp.ReentryAnchor, len(bp.Novel), seq)
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}
