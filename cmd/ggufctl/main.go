package main

import (
	"os"

	"ggufctl/internal/cli"
)

func main() { os.Exit(cli.Main()) }
