package main

import (
	"os"

	"github.com/sertugser/assessai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
