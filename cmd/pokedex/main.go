package main

import (
	"os"

	"pokedex/cmd/pokedex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
