package main

import (
	"os"

	"github.com/rustyeddy/fxflip/cmd/trader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
