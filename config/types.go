// Package config implements the declarative configuration builder: a
// tagged, nestable document that constructs a cache tree and wraps it in
// the dynamic facade with computed capability bits.
package config

import "errors"

// Sentinel configuration errors, returned from parsing or building — never
// panicked.
var (
	ErrUnknownTag              = errors.New("config: unknown block tag")
	ErrMissingField            = errors.New("config: missing required field")
	ErrInvalidFieldType        = errors.New("config: field has the wrong type")
	ErrUnsupportedTrait        = errors.New("config: block combination does not support the requested trait")
	ErrHasherBitBudgetExceeded = errors.New("config: stacked associative hasher bit budget exceeded")
)

// Node is the parsed, language-agnostic representation of one table in the
// configuration document. Loader produces a Node tree; Builder walks it to
// construct a cache.
type Node struct {
	// ID is the block tag, e.g. "Array", "Sequential", "Decorator".
	ID string

	Capacity uint64
	Filename string
	Name     string
	Output   string

	// Decorator is populated only for DecoratorConfig nodes; a top-level
	// policy declaration is stored in Policy instead.
	Decorator *PolicyField

	// Container holds the single wrapped child for Sequential,
	// FlushStopper, Profiler, Decorator, and the list of children for
	// Batch/Associative.
	Container     *Node
	ContainerList []*Node

	Front *Node
	Back  *Node

	// Policy declares a single ordering policy. Build reads it on the root
	// node only, where the decorator becomes the outermost block, except
	// under a Sequential, FlushStopper or Profiler root, where it sits
	// between the wrapper and its container. Policy on a nested node is
	// ignored.
	Policy *PolicyField
}

// PolicyField names an ordering policy and its tuning parameter.
type PolicyField struct {
	Kind     string // "fifo", "lru", or "lrfu"
	Exponent float64
}
