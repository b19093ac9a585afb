// Command houseledger stores house listings and their change ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/houseledger/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
