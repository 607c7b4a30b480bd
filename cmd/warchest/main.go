package main

import (
	"os"

	"github.com/alynder/warchest/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
