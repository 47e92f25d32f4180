// Package main is the entry point for the vidra application.
package main

import (
	"github.com/samber/lo"
	"github.com/vidra-app/vidra/cmd"
	"github.com/vidra-app/vidra/config"
	"github.com/vidra-app/vidra/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
