package main

import (
	"os"

	"github.com/solatis/docguard/cmd/docguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
