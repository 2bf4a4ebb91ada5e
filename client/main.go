package main

import (
	"os"

	"github.com/chathubio/chathub/client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
