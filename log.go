// log.go - Minimal leveled logging
//
// No external logging library; plain fmt over stderr, matching the
// teacher's direct-to-terminal diagnostics rather than a structured
// logging package. Host-visible failures (spec.md §7) are logged here
// before main.go decides whether to exit.
package main

import (
	"fmt"
	"os"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[info] "+format+"\n", args...)
}

func logWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[warn] "+format+"\n", args...)
}

func logHostFault(err error) {
	fmt.Fprintf(os.Stderr, "[fatal] %v\n", err)
}
