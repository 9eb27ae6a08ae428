// Command scrabbledb loads Scrabble tournament games into a sorted
// key-value table and answers queries over them.
package main

import (
	"os"

	"github.com/roach88/scrabbledb/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
