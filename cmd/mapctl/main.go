// Command mapctl works on map documents offline: validate and repair them,
// re-run layouts and export them.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
