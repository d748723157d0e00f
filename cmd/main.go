package main

import (
	"context"
	"fmt"
	"github.com/yakoovad/hackathon-teams/internal/cli"
	"os"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
