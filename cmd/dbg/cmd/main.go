package cmd

import (
	"log"

	"v.io/x/lib/cmdline"
)

// Run wires up dbg's subcommands and hands off to cmdline.Main, the same
// structure cmd/bio-pamtool/cmd uses for its own Run.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "dbg",
			Short:    "Colored de Bruijn graph assembly toolkit",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdBuild(),
				newCmdClean(),
				newCmdThread(),
				newCmdLinks(),
				newCmdBubbles(),
				newCmdBreakpoints(),
				newCmdCalls2VCF(),
				newCmdVCFCov(),
				newCmdReads(),
			},
		})
}
