// Command coordsim simulates and inspects the waiting-room and
// reader/writer coordination engines.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/coordsim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "coordsim: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
