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
)

func newCmdBubbles() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bubbles",
		Short:    "Find reconverging branch pairs (candidate SNPs/indels)",
		ArgsName: "graph.ctx",
	}
	output := cmd.Flags.String("o", "out.bubbles.tsv", "Output path")
	maxLen := cmd.Flags.Int("max-len", 500, "Maximum bubble arm length, in nodes")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("bubbles takes one graph.ctx argument, got %v", argv)
		}
		return runBubbles(argv[0], *output, *maxLen)
	})
	return cmd
}

func runBubbles(graphPath, output string, maxLen int) error {
	ctx := vcontext.Background()
	g, _, err := loadGraph(ctx, graphPath, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	bubbles := caller.FindBubbles(g, g.AllColorsMask(), maxLen)
	log.Printf("bubbles: found %d", len(bubbles))

	out, err := file.Create(ctx, output)
	if err != nil {
		return fmt.Errorf("create %s: %v", output, err)
	}
	bw := bufio.NewWriter(out.Writer(ctx))
	fmt.Fprintln(bw, "start\tend\tarm1\tarm2")
	for _, b := range bubbles {
		arm1 := caller.Sequence(g, g.Codec, b.Start, b.Paths[0])
		arm2 := caller.Sequence(g, g.Codec, b.Start, b.Paths[1])
		fmt.Fprintf(bw, "%d\t%d\t%s\t%s\n", b.Start, b.End, arm1, arm2)
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}
