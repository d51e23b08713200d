// Package engine validates and executes blueprints: graphs of typed nodes
// run in topological order under a fixed gas budget.
package engine

// KindTrigger is the entry-point kind every blueprint must contain.
const KindTrigger = "trigger"

// Node is an immutable description of one vertex of a blueprint.
// Kind is an open tag: new kinds come from registering runtimes.
type Node struct {
	ID   string         `json:"id" validate:"required"`
	Kind string         `json:"kind" validate:"required"`
	Data map[string]any `json:"data,omitempty"`
}

// Edge is a directed link from Source to Target.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// Blueprint is one user-authored program: an unordered set of nodes and edges.
type Blueprint struct {
	Nodes []Node `json:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" validate:"dive"`
}

// Config carries the per-run budget and starting variables.
type Config struct {
	MaxGas           int64          `json:"maxGas,omitempty"`
	InitialVariables map[string]any `json:"initialVariables,omitempty"`
}

// DefaultMaxGas is used when Config.MaxGas is absent or not positive.
const DefaultMaxGas int64 = 1000

func (c Config) maxGas() int64 {
	if c.MaxGas <= 0 {
		return DefaultMaxGas
	}
	return c.MaxGas
}

// Param returns the raw value stored under key in the node data.
func (n Node) Param(key string) (any, bool) {
	if n.Data == nil {
		return nil, false
	}
	v, ok := n.Data[key]
	return v, ok
}
