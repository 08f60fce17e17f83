// Package main provides the quantumctl CLI for deploying the Quantum Rust
// toolchain.
package main

import (
	"os"

	"github.com/quantum-rust/quantumctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
