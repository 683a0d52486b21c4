package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/debruijn/graph"
	"github.com/grailbio/debruijn/kmer"
)

func newCmdBuild() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "build",
		Short:    "Build a colored de Bruijn graph from reads",
		ArgsName: "col:file[,col:file...]",
	}
	k := cmd.Flags.Int("k", 31, "K-mer size")
	memBudget := cmd.Flags.Int("m", 1<<30, "Memory budget in bytes for the hash table")
	threads := cmd.Flags.Int("t", 2, "Worker thread count")
	output := cmd.Flags.String("o", "out.ctx", "Output .ctx path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("build takes one col:file[,col:file...] argument, got %v", argv)
		}
		specs, err := parseColorFiles(argv[0])
		if err != nil {
			return err
		}
		return runBuild(*k, *memBudget, *threads, *output, specs)
	})
	return cmd
}

func runBuild(k, memBudget, threads int, output string, specs []colorFile) error {
	ctx := vcontext.Background()
	numColors := 0
	for _, s := range specs {
		if s.Color+1 > numColors {
			numColors = s.Color + 1
		}
	}
	if numColors == 0 {
		return fmt.Errorf("build: no color:file arguments given")
	}

	codec, err := kmer.NewCodec(k)
	if err != nil {
		return err
	}
	capacity := graph.CapacityForBudget(uint64(memBudget), 8, codec.Words(), numColors, 0.75)
	if capacity < 16 {
		capacity = 16
	}
	g, err := graph.New(codec, capacity, numColors, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	sampleNames := make([]string, numColors)
	var totalSequence uint64
	var totalBases, totalReads int64
	for _, s := range specs {
		reads, err := readSeqs(ctx, s.Path)
		if err != nil {
			return err
		}
		sampleNames[s.Color] = s.Path
		stats, err := graph.BuildFromReads(g, s.Color, reads, threads)
		if err != nil {
			return err
		}
		totalSequence += uint64(stats.BasesLoaded)
		totalBases += stats.BasesRead
		totalReads += int64(len(reads))
		log.Printf("build: color %d (%s): %+v", s.Color, s.Path, stats)
	}
	var meanReadLength uint32
	if totalReads > 0 {
		meanReadLength = uint32(totalBases / totalReads)
	}
	if err := saveGraph(ctx, output, g, sampleNames, meanReadLength, totalSequence); err != nil {
		return err
	}
	log.Printf("build: wrote %s (k=%d, colors=%d, nodes=%d)", output, k, numColors, g.Table.Len())
	return nil
}
