package main

import (
	"os"

	"cafe_finder/cmd/cafes/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
