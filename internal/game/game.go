// Package game layers the economy node kinds over the base engine registry.
// The runtimes only move the engine's accumulator slots; turning them into
// rewards is left to the caller.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"

	"blueprint/internal/engine"
)

const (
	KindGenerator = "generator"
	KindBooster   = "booster"
	KindSink      = "sink"
)

var (
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrOverflow              = errors.New("overflow")
)

// GasCosts returns the fixed costs of the game kinds.
func GasCosts() engine.GasTable {
	return engine.GasTable{
		KindGenerator: 15,
		KindBooster:   25,
		KindSink:      10,
	}
}

// Register binds the game kinds on reg.
func Register(reg *engine.Registry) {
	reg.Register(KindGenerator, engine.RuntimeFunc(executeGenerator))
	reg.Register(KindBooster, engine.RuntimeFunc(executeBooster))
	reg.Register(KindSink, engine.RuntimeFunc(executeSink))
}

// NewEngine returns an engine with the base and game kinds and their costs.
func NewEngine(opts ...engine.Option) *engine.Engine {
	reg := engine.NewRegistry()
	Register(reg)
	return engine.New(reg, append([]engine.Option{engine.WithGasTable(GasCosts())}, opts...)...)
}

func executeGenerator(_ context.Context, node engine.Node, ec *engine.ExecutionContext) (map[string]any, error) {
	amount, err := engine.NumberParam(node, "amount", 1)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, fmt.Errorf("generator %s: amount must not be negative", node.ID)
	}

	if !finite(ec.ResourceDelta + amount) {
		return nil, fmt.Errorf("generator %s: resources %w", node.ID, ErrOverflow)
	}
	ec.ResourceDelta += amount
	return map[string]any{
		"generated": amount,
		"resources": ec.ResourceDelta,
	}, nil
}

func executeBooster(_ context.Context, node engine.Node, ec *engine.ExecutionContext) (map[string]any, error) {
	factor, err := engine.NumberParam(node, "factor", 2)
	if err != nil {
		return nil, err
	}
	if factor <= 0 {
		return nil, fmt.Errorf("booster %s: factor must be positive", node.ID)
	}

	if !finite(ec.Multiplier * factor) {
		return nil, fmt.Errorf("booster %s: multiplier %w", node.ID, ErrOverflow)
	}
	ec.Multiplier *= factor
	return map[string]any{"multiplier": ec.Multiplier}, nil
}

// executeSink consumes data.amount resources, or everything when amount is absent.
func executeSink(_ context.Context, node engine.Node, ec *engine.ExecutionContext) (map[string]any, error) {
	amount, err := engine.NumberParam(node, "amount", ec.ResourceDelta)
	if err != nil {
		return nil, err
	}
	if !finite(amount) {
		return nil, fmt.Errorf("sink %s: amount %w", node.ID, ErrOverflow)
	}
	if amount < 0 {
		return nil, fmt.Errorf("sink %s: amount must not be negative", node.ID)
	}
	if amount > ec.ResourceDelta {
		return nil, fmt.Errorf("sink %s: %w: need %g, have %g", node.ID, ErrInsufficientResources, amount, ec.ResourceDelta)
	}

	ec.ResourceDelta -= amount
	return map[string]any{
		"consumed":  amount,
		"resources": ec.ResourceDelta,
	}, nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
