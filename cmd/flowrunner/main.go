package main

import (
	"context"
	"os"

	"github.com/rocketship-ai/flowrunner/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
