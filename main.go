package main

import (
	"os"

	"github.com/samuelfneumann/rlzoo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
