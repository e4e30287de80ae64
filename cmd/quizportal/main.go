package main

import (
	"os"

	"github.com/kiran-c861/Nipe-Quiz-2026/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
