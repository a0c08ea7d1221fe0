package commands

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/config"
	"github.com/cachetree/blockcache/profiler"
)

// NewBenchCommand drives a uniform-random push/get/take/pop workload
// against a tree built from a configuration document and prints profiler
// counters.
func NewBenchCommand() *cobra.Command {
	var ops int

	cmd := &cobra.Command{
		Use:   "bench <config-file>",
		Short: "drive a random push/get/take/pop workload against a built tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runBench(args[0], ops)
		},
	}

	cmd.Flags().IntVar(&ops, "ops", 1000, "number of operations to issue")

	return cmd
}

func runBench(path string, ops int) error {
	node, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	result, err := config.Build[string, numericValue](node)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	p := profiler.New[string, numericValue]("bench", result.Tree)

	keyspace := max(ops/4, 1)

	for i := 0; i < ops; i++ {
		key := fmt.Sprintf("key-%d", rand.IntN(keyspace))

		switch rand.IntN(4) {
		case 0:
			p.Push([]blockcache.Pair[string, numericValue]{{Key: key, Value: numericValue(rand.Float64() * 100)}})
		case 1:
			p.Get(key)
		case 2:
			p.Take(key)
		case 3:
			p.Pop(1)
		}
	}

	return p.WriteReport(os.Stdout)
}
