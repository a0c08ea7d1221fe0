// Package main provides the entry point for the blockcachectl CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cachetree/blockcache/cmd/blockcachectl/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blockcachectl",
		Short: "blockcachectl builds and benchmarks cache trees from a configuration document",
		Long: `blockcachectl drives the blockcache configuration builder from the command line.

Commands:
  build   Parse a configuration document and report the built tree's shape
  bench   Drive a random push/get/take/pop workload against a built tree`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewBenchCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
