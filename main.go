package main

import (
	"os"

	"github.com/dkravets/orgview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
