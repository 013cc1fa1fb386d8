package main

import (
	"os"

	"github.com/kevinrhaas/glossary/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
