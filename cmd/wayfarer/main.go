// README: Entry point for the wayfarer CLI.
package main

import (
	"fmt"
	"os"

	"wayfarer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
