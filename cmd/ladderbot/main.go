package main

import (
	"os"

	"ladderbot/cmd/ladderbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
