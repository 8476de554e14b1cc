// Command moodify turns a mood into a Spotify playlist, from the terminal or
// through its HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/justestif/moodify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
