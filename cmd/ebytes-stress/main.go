// ebytes-stress hammers shared ebytes handles from many goroutines and checks
// that every backing array is freed exactly once.
//
// Usage:
//
//	ebytes-stress run --workers 16 --iterations 100000
//	ebytes-stress run --config stress.yaml --debug
package main

import (
	"os"

	"github.com/ssungk/ebytes/cmd/ebytes-stress/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
