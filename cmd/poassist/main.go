package main

import (
	"os"

	"poassistant/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
