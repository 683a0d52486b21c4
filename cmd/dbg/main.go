package main

import (
	"github.com/grailbio/base/grail"

	"github.com/grailbio/debruijn/cmd/dbg/cmd"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmd.Run()
}
