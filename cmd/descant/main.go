package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Ctrl-C already reads as an interruption; don't echo it.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "descant: %v\n", err)
		}
		os.Exit(1)
	}
}
