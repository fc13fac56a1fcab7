package main

import (
	"os"

	"llmgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
