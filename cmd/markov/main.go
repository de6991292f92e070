package main

import (
	"os"

	"github.com/saethlin/markov/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
