// Copyright 2025 Ajay Bharadwaj.
// SPDX-License-Identifier: MIT

// massfp - spatial mass fingerprinting for MALDI imaging data
package main

import (
	"fmt"
	"os"

	"github.com/ajay16bharadwaj/Spatial-proteomics-mass-fingerprinting/cmd/massfp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
