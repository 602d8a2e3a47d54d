package main

import (
	"flag"

	"github.com/robotalks/nxt.go/pkg/cli/sh"
	"github.com/robotalks/nxt.go/pkg/nxt/env"

	_ "github.com/robotalks/nxt.go/pkg/cli/cmds/all"
)

func init() {
	env.Default().SetupFlags(flag.CommandLine)
}

func main() {
	sh.Main()
}
