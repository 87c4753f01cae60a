package main

import (
	"os"

	"github.com/DanielRabinovitz/unsupervisedfinalproj/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
