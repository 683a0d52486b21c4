package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/debruijn/caller"
)

func newCmdReads() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "reads",
		Short:    "Split reads by k-mer membership in a graph color",
		ArgsName: "graph.ctx reads.fa",
	}
	color := cmd.Flags.Int("color", 0, "Graph color to test membership against")
	minFraction := cmd.Flags.Float64("min-fraction", 0.9, "Minimum fraction of a read's k-mers that must be present to call it in-graph")
	inGraphOut := cmd.Flags.String("in", "in_graph.fa", "Output path for in-graph reads")
	outOfGraphOut := cmd.Flags.String("out", "out_of_graph.fa", "Output path for out-of-graph reads")
	threads := cmd.Flags.Int("t", 2, "Worker threads")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("reads takes graph.ctx and an input FASTA/FASTQ file, got %v", argv)
		}
		return runReads(argv[0], argv[1], *color, *minFraction, *inGraphOut, *outOfGraphOut, *threads)
	})
	return cmd
}

func runReads(graphPath, readsPath string, color int, minFraction float64, inGraphOut, outOfGraphOut string, threads int) error {
	ctx := vcontext.Background()
	g, _, err := loadGraph(ctx, graphPath, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	records, err := readSeqRecords(ctx, readsPath)
	if err != nil {
		return err
	}

	inFile, err := file.Create(ctx, inGraphOut)
	if err != nil {
		return fmt.Errorf("create %s: %v", inGraphOut, err)
	}
	outFile, err := file.Create(ctx, outOfGraphOut)
	if err != nil {
		_ = inFile.Close(ctx)
		return fmt.Errorf("create %s: %v", outOfGraphOut, err)
	}

	stats, filterErr := caller.FilterReads(g, color, minFraction, records, inFile.Writer(ctx), outFile.Writer(ctx), threads)

	if err := inFile.Close(ctx); err != nil && filterErr == nil {
		filterErr = err
	}
	if err := outFile.Close(ctx); err != nil && filterErr == nil {
		filterErr = err
	}
	if filterErr != nil {
		return filterErr
	}

	log.Printf("reads: %d total, %d in-graph, %d out-of-graph, %d duplicate", stats.Total, stats.InGraph, stats.OutOfGraph, stats.Duplicate)
	return nil
}
