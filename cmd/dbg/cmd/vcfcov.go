package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/debruijn/caller"
)

func newCmdVCFCov() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "vcfcov",
		Short:    "Annotate a VCF with per-color median k-mer coverage",
		ArgsName: "graph.ctx input.vcf",
	}
	output := cmd.Flags.String("o", "out.vcf", "Output VCF path")
	maxNvars := cmd.Flags.Int("max-nvars", 1000, "Maximum VCF records buffered in memory at once")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("vcfcov takes graph.ctx and input.vcf, got %v", argv)
		}
		return runVCFCov(argv[0], argv[1], *output, *maxNvars)
	})
	return cmd
}

func runVCFCov(graphPath, vcfPath, output string, maxNvars int) error {
	ctx := vcontext.Background()
	g, _, err := loadGraph(ctx, graphPath, 1024, 0.75)
	if err != nil {
		return err
	}
	defer g.Close()

	in, err := file.Open(ctx, vcfPath)
	if err != nil {
		return fmt.Errorf("open %s: %v", vcfPath, err)
	}
	defer func() { _ = in.Close(ctx) }()

	out, err := file.Create(ctx, output)
	if err != nil {
		return fmt.Errorf("create %s: %v", output, err)
	}
	if err := caller.Run(in.Reader(ctx), out.Writer(ctx), g, maxNvars); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}
