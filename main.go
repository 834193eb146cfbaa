package main

import (
	"os"

	"github.com/Chative-core-poc-v1/emily/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
