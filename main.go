package main

import (
	"os"

	"github.com/telhawk-systems/logblock/cmd"
	"github.com/telhawk-systems/logblock/internal/models"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(models.ExitCode(err))
	}
}
