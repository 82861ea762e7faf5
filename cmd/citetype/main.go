// Package main is the entry point for the citetype CLI: the citation context
// extraction and classification pipeline.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
