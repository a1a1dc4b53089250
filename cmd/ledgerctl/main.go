// Command ledgerctl hosts the book lending contracts over a SQLite ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bookledger/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
