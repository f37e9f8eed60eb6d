package main

import (
	"os"

	"github.com/austindbirch/bugsignal/cmd/bugsignalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
