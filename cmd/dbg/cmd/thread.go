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

func newCmdThread() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "thread",
		Short:    "Thread reads through a graph to build link tries",
		ArgsName: "graph.ctx col:file[,col:file...]",
	}
	output := cmd.Flags.String("o", "out.ctp.gz", "Output .ctp.gz path")
	mergePath := cmd.Flags.String("merge", "", "Optional existing .ctp.gz to merge the newly threaded links into, the shard-combining path for link building split across separate invocations")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("thread takes graph.ctx and col:file[,col:file...], got %v", argv)
		}
		specs, err := parseColorFiles(argv[1])
		if err != nil {
			return err
		}
		return runThread(argv[0], *output, *mergePath, specs)
	})
	return cmd
}

func runThread(graphPath, output, mergePath string, specs []colorFile) error {
	ctx := vcontext.Background()
	g, _, err := loadGraph(ctx, graphPath, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	ix := links.NewIndex(g.Codec)
	for _, s := range specs {
		reads, err := readSeqs(ctx, s.Path)
		if err != nil {
			return err
		}
		links.ThreadReads(g, ix, g.AllColorsMask(), reads)
		log.Printf("thread: %s: threaded %d reads, %d tries so far", s.Path, len(reads), ix.NumTries())
	}

	if mergePath != "" {
		in, err := file.Open(ctx, mergePath)
		if err != nil {
			return fmt.Errorf("open %s: %v", mergePath, err)
		}
		_, prior, err := ctplinks.Read(bufio.NewReader(in.Reader(ctx)), g)
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		links.MergeIndex(ix, prior)
		log.Printf("thread: merged %s, %d tries after merge", mergePath, ix.NumTries())
	}

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
