package main

import (
	"os"

	"github.com/dshills/mreview/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
