// Command bindsoak runs concurrent writers against a two-way binding and
// reports whether the endpoints converge.
package main

import (
	"os"

	"github.com/go-drift/bind/cmd/bindsoak/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
