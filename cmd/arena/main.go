package main

import (
	"os"

	"github.com/six78/arena-cli/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
