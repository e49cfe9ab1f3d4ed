// Command admin runs maintenance tasks that are deliberately not exposed over HTTP:
// bootstrapping owners and adjusting the global agent number sequence.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(connectServices).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
