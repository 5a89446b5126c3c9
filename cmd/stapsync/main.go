package main

import (
	"fmt"
	"os"

	"github.com/roach88/stapsync/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		// JSON-mode failures are also written to stdout as a response
		// document; stderr always gets the plain message.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
