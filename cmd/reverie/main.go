package main

import (
	"os"

	"github.com/reverielabs/reverie-lite/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
