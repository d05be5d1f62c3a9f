package main

import (
	"os"

	"github.com/poalrom/big-web-quiz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
