package main

import (
	"os"

	"github.com/tkingovr/rulesel/cmd/rulesel/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
