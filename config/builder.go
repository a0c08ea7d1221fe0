package config

import (
	"fmt"

	"github.com/cachetree/blockcache"
	"github.com/cachetree/blockcache/array"
	"github.com/cachetree/blockcache/associative"
	"github.com/cachetree/blockcache/batch"
	"github.com/cachetree/blockcache/bstream"
	"github.com/cachetree/blockcache/btree"
	"github.com/cachetree/blockcache/compressed"
	"github.com/cachetree/blockcache/decorator"
	"github.com/cachetree/blockcache/dynamic"
	"github.com/cachetree/blockcache/exclusive"
	"github.com/cachetree/blockcache/flushstopper"
	"github.com/cachetree/blockcache/inclusive"
	"github.com/cachetree/blockcache/profiler"
	"github.com/cachetree/blockcache/sequential"
	"github.com/cachetree/blockcache/stream"
)

// ProfilerHandle lets a caller flush a Profiler buried inside the tree
// Build constructed, since the returned dynamic.Dyn erases its concrete
// type and there would otherwise be no way to reach it for an on-demand
// counter flush.
type ProfilerHandle struct {
	Name   string
	Output string
	Flush  func() error
}

// BuildResult is what Build returns: the boxed cache tree plus every
// Profiler node's flush handle, in document order.
type BuildResult[K comparable, V blockcache.Lesser[V]] struct {
	Tree      *dynamic.Dyn[K, V]
	Profilers []ProfilerHandle
}

// buildCtx is the state threaded through the recursive build: the profiler
// handle accumulator, and the exclusive-bit hash window of the nearest
// enclosing Associative layer (nil at the root), so stacked Associative
// layers sample disjoint hash bits instead of collapsing onto one shard.
type buildCtx struct {
	profilers *[]ProfilerHandle
	hasher    *associative.ExclusiveHasher
}

// Build parses node into a cache tree and boxes it in the dynamic facade
// with computed capability bits.
func Build[K comparable, V blockcache.Lesser[V]](node *Node) (*BuildResult[K, V], error) {
	var profilers []ProfilerHandle

	inner, err := buildRoot[K, V](node, buildCtx{profilers: &profilers})
	if err != nil {
		return nil, err
	}

	return &BuildResult[K, V]{Tree: dynamic.New[K, V](inner), Profilers: profilers}, nil
}

// buildRoot applies node's Policy field, if set, as the outermost ordering
// decorator over whatever node's own tag wraps. For the single-container
// wrapper tags (Sequential,
// FlushStopper, Profiler) the decorator slots between the wrapper and its
// container, so the wrapper's own capability (Concurrent, flush-suppression)
// still applies to the decorated tree; for every other tag the decorator
// becomes the true root.
func buildRoot[K comparable, V blockcache.Lesser[V]](node *Node, ctx buildCtx) (blockcache.BuildingBlock[K, V], error) {
	if node.Policy == nil {
		return buildBlock[K, V](node, ctx)
	}

	switch node.ID {
	case "Sequential":
		if node.Container == nil {
			return nil, fmt.Errorf("%w: Sequential.container", ErrMissingField)
		}

		decorated, err := buildWithPolicy[K, V](node.Container, node.Policy, ctx)
		if err != nil {
			return nil, err
		}

		return sequential.New[K, V](decorated), nil

	case "FlushStopper":
		if node.Container == nil {
			return nil, fmt.Errorf("%w: FlushStopper.container", ErrMissingField)
		}

		decorated, err := buildWithPolicy[K, V](node.Container, node.Policy, ctx)
		if err != nil {
			return nil, err
		}

		return flushstopper.New[K, V](decorated), nil

	case "Profiler":
		if node.Container == nil {
			return nil, fmt.Errorf("%w: Profiler.container", ErrMissingField)
		}

		decorated, err := buildWithPolicy[K, V](node.Container, node.Policy, ctx)
		if err != nil {
			return nil, err
		}

		return wrapProfiler[K, V](node, decorated, ctx), nil

	default:
		return buildWithPolicy[K, V](node, node.Policy, ctx)
	}
}

// buildWithPolicy builds node's tree parameterized over the policy's cell
// type, then wraps it in the matching Decorator so the result is typed
// over V again. The tree node builds must itself be Ordered, or the policy
// has nothing meaningful to reorder: applying a policy to a non-ordered
// tree returns ErrUnsupportedTrait.
func buildWithPolicy[K comparable, V blockcache.Lesser[V]](
	node *Node, policy *PolicyField, ctx buildCtx,
) (blockcache.BuildingBlock[K, V], error) {
	switch policy.Kind {
	case "fifo":
		inner, err := buildBlock[K, decorator.FIFOCell[V]](node, ctx)
		if err != nil {
			return nil, err
		}

		if !isOrdered(inner) {
			return nil, fmt.Errorf("%w: policy requires an ordered underlying tree", ErrUnsupportedTrait)
		}

		return decorator.NewFIFO[K, V](inner), nil
	case "lru":
		inner, err := buildBlock[K, decorator.LRUCell[V]](node, ctx)
		if err != nil {
			return nil, err
		}

		if !isOrdered(inner) {
			return nil, fmt.Errorf("%w: policy requires an ordered underlying tree", ErrUnsupportedTrait)
		}

		return decorator.NewLRU[K, V](inner, nil), nil
	case "lrfu":
		inner, err := buildBlock[K, decorator.LRFUCell[V]](node, ctx)
		if err != nil {
			return nil, err
		}

		if !isOrdered(inner) {
			return nil, fmt.Errorf("%w: policy requires an ordered underlying tree", ErrUnsupportedTrait)
		}

		return decorator.NewLRFU[K, V](inner, nil, policy.Exponent), nil
	default:
		return nil, fmt.Errorf("%w: policy.kind %q", ErrUnsupportedTrait, policy.Kind)
	}
}

// isOrdered probes the ordered marker interface dynamic.Dyn also probes,
// defaulting to false when a block does not carry the capability at all.
func isOrdered[K comparable, V any](b blockcache.BuildingBlock[K, V]) bool {
	o, ok := b.(interface{ IsOrdered() bool })

	return ok && o.IsOrdered()
}

// buildBlock recursively constructs the BuildingBlock node describes.
func buildBlock[K comparable, V blockcache.Lesser[V]](node *Node, ctx buildCtx) (blockcache.BuildingBlock[K, V], error) {
	switch node.ID {
	case "Array":
		if node.Capacity == 0 {
			return nil, fmt.Errorf("%w: Array.capacity", ErrMissingField)
		}

		return array.New[K, V](node.Capacity), nil

	case "BTree":
		if node.Capacity == 0 {
			return nil, fmt.Errorf("%w: BTree.capacity", ErrMissingField)
		}

		return btree.New[K, V](node.Capacity), nil

	case "Stream":
		if node.Capacity == 0 {
			return nil, fmt.Errorf("%w: Stream.capacity", ErrMissingField)
		}

		backing, err := openBacking(node)
		if err != nil {
			return nil, err
		}

		return stream.New[K, V](backing, node.Capacity), nil

	case "Compressed":
		if node.Capacity == 0 {
			return nil, fmt.Errorf("%w: Compressed.capacity", ErrMissingField)
		}

		backing, err := openBacking(node)
		if err != nil {
			return nil, err
		}

		return compressed.New[K, V](backing, node.Capacity), nil

	case "Batch":
		children, err := buildChildren[K, V](node.ContainerList, ctx)
		if err != nil {
			return nil, err
		}

		return batch.New[K, V](children...), nil

	case "Associative":
		hasher, err := deriveHasher(ctx, len(node.ContainerList))
		if err != nil {
			return nil, err
		}

		childCtx := ctx
		childCtx.hasher = hasher

		children, err := buildChildren[K, V](node.ContainerList, childCtx)
		if err != nil {
			return nil, err
		}

		return associative.New[K, V](children, associative.WithHasher[K, V](hasher)), nil

	case "Exclusive":
		if node.Front == nil || node.Back == nil {
			return nil, fmt.Errorf("%w: Exclusive.front/back", ErrMissingField)
		}

		front, err := buildBlock[K, V](node.Front, ctx)
		if err != nil {
			return nil, err
		}

		back, err := buildBlock[K, V](node.Back, ctx)
		if err != nil {
			return nil, err
		}

		return exclusive.New[K, V](front, back), nil

	case "Inclusive":
		if node.Front == nil || node.Back == nil {
			return nil, fmt.Errorf("%w: Inclusive.front/back", ErrMissingField)
		}

		front, err := buildBlock[K, inclusive.Cell[V]](node.Front, ctx)
		if err != nil {
			return nil, err
		}

		back, err := buildBlock[K, inclusive.Cell[V]](node.Back, ctx)
		if err != nil {
			return nil, err
		}

		return inclusive.New[K, V](front, back), nil

	case "Sequential":
		if node.Container == nil {
			return nil, fmt.Errorf("%w: Sequential.container", ErrMissingField)
		}

		inner, err := buildBlock[K, V](node.Container, ctx)
		if err != nil {
			return nil, err
		}

		return sequential.New[K, V](inner), nil

	case "FlushStopper":
		if node.Container == nil {
			return nil, fmt.Errorf("%w: FlushStopper.container", ErrMissingField)
		}

		inner, err := buildBlock[K, V](node.Container, ctx)
		if err != nil {
			return nil, err
		}

		return flushstopper.New[K, V](inner), nil

	case "Profiler":
		if node.Container == nil {
			return nil, fmt.Errorf("%w: Profiler.container", ErrMissingField)
		}

		inner, err := buildBlock[K, V](node.Container, ctx)
		if err != nil {
			return nil, err
		}

		return wrapProfiler[K, V](node, inner, ctx), nil

	case "Decorator":
		if node.Decorator == nil {
			return nil, fmt.Errorf("%w: Decorator.decorator", ErrMissingField)
		}

		if node.Container == nil {
			return nil, fmt.Errorf("%w: Decorator.container", ErrMissingField)
		}

		return buildDecoratedBlock[K, V](node, ctx)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, node.ID)
	}
}

// deriveHasher picks the hash-bit window for an Associative layer of n
// shards: a fresh root window when no Associative encloses this one, or
// the window immediately above the enclosing layer's otherwise.
func deriveHasher(ctx buildCtx, n int) (*associative.ExclusiveHasher, error) {
	if ctx.hasher == nil {
		return associative.NewExclusiveHasher(n), nil
	}

	next, err := ctx.hasher.Next(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %d shards", ErrHasherBitBudgetExceeded, n)
	}

	return next, nil
}

func wrapProfiler[K comparable, V blockcache.Lesser[V]](
	node *Node, inner blockcache.BuildingBlock[K, V], ctx buildCtx,
) *profiler.Profiler[K, V] {
	name := node.Name
	if name == "" {
		name = "profiler"
	}

	p := profiler.New[K, V](name, inner)

	sink, path := resolveSink(node.Output)
	*ctx.profilers = append(*ctx.profilers, ProfilerHandle{
		Name:   name,
		Output: node.Output,
		Flush:  func() error { return p.FlushTo(sink, path) },
	})

	return p
}

func buildDecoratedBlock[K comparable, V blockcache.Lesser[V]](node *Node, ctx buildCtx) (blockcache.BuildingBlock[K, V], error) {
	switch node.Decorator.Kind {
	case "fifo":
		inner, err := buildBlock[K, decorator.FIFOCell[V]](node.Container, ctx)
		if err != nil {
			return nil, err
		}

		return decorator.NewFIFO[K, V](inner), nil
	case "lru":
		inner, err := buildBlock[K, decorator.LRUCell[V]](node.Container, ctx)
		if err != nil {
			return nil, err
		}

		return decorator.NewLRU[K, V](inner, nil), nil
	case "lrfu":
		inner, err := buildBlock[K, decorator.LRFUCell[V]](node.Container, ctx)
		if err != nil {
			return nil, err
		}

		return decorator.NewLRFU[K, V](inner, nil, node.Decorator.Exponent), nil
	default:
		return nil, fmt.Errorf("%w: decorator.kind %q", ErrUnsupportedTrait, node.Decorator.Kind)
	}
}

func buildChildren[K comparable, V blockcache.Lesser[V]](nodes []*Node, ctx buildCtx) ([]blockcache.BuildingBlock[K, V], error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: container list must not be empty", ErrMissingField)
	}

	children := make([]blockcache.BuildingBlock[K, V], len(nodes))

	for i, cn := range nodes {
		c, err := buildBlock[K, V](cn, ctx)
		if err != nil {
			return nil, err
		}

		children[i] = c
	}

	return children, nil
}

func openBacking(node *Node) (bstream.Stream, error) {
	if node.Filename == "" {
		return bstream.NewMem(), nil
	}

	return bstream.OpenFile(node.Filename)
}

func resolveSink(output string) (profiler.Sink, string) {
	switch output {
	case "", "discard":
		return profiler.SinkDiscard, ""
	case "stdout":
		return profiler.SinkStdout, ""
	default:
		return profiler.SinkFile, output
	}
}
