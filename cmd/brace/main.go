// Command brace renders brace templates from the command line and manages
// the render cache. Configuration comes from brace.yaml (or --config) with
// BRACE_-prefixed environment overrides.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
