package main

import (
	"os"

	"github.com/matrixise/coinfolio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
