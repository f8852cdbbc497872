package main

import (
	"os"

	"github.com/alim-webecc/ha-tms/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
