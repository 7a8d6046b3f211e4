// Package main is the entry point for the GB28181 registrar daemon.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/gb28181registrar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
