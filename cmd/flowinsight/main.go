package main

import (
	"os"

	"flowinsight/cmd/flowinsight/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
