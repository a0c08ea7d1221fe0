package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cachetree/blockcache/config"
)

// NewBuildCommand parses a configuration document, builds the cache tree,
// and reports its capability bits and capacity/size.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <config-file>",
		Short: "parse a configuration document and report the built tree's shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runBuild(args[0])
		},
	}

	return cmd
}

func runBuild(path string) error {
	node, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	result, err := config.Build[string, numericValue](node)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	tree := result.Tree

	fmt.Fprintf(os.Stdout, "tag: %s\n", node.ID)
	fmt.Fprintf(os.Stdout, "capacity: %d\n", tree.Capacity())
	fmt.Fprintf(os.Stdout, "size: %d\n", tree.Size())
	fmt.Fprintf(os.Stdout, "ordered: %t\n", tree.HasOrdered())
	fmt.Fprintf(os.Stdout, "concurrent: %t\n", tree.HasConcurrent())
	fmt.Fprintf(os.Stdout, "profilers: %d\n", len(result.Profilers))

	for _, p := range result.Profilers {
		fmt.Fprintf(os.Stdout, "  - %s -> %s\n", p.Name, p.Output)
	}

	return nil
}
