package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Result is the only artifact handed to collaborators. A remote executor
// must produce the same shape.
type Result struct {
	Status        Status         `json:"status"`
	Logs          []ExecutionLog `json:"logs"`
	FinalState    map[string]any `json:"finalState"`
	Error         string         `json:"error,omitempty"`
	ResourceDelta float64        `json:"resourceDelta"`
	Multiplier    float64        `json:"multiplier"`
	GasUsed       int64          `json:"gasUsed"`
	GasRemaining  int64          `json:"gasRemaining"`
}

// Executor runs a blueprint locally or elsewhere.
type Executor interface {
	ExecuteBlueprint(ctx context.Context, bp Blueprint, cfg Config) (Result, error)
}

// Observer is notified after every log append. It runs on the run's
// goroutine and cannot influence the run.
type Observer interface {
	OnLog(entry ExecutionLog)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(entry ExecutionLog)

func (f ObserverFunc) OnLog(entry ExecutionLog) { f(entry) }

// Engine executes blueprints against a registry and gas table.
// One Engine serves any number of concurrent runs.
type Engine struct {
	registry *Registry
	gas      GasTable
	logger   zerolog.Logger
	now      func() time.Time
	err      error
}

// Option configures an Engine.
type Option func(*Engine)

// WithGasTable overlays costs on the default gas table.
func WithGasTable(t GasTable) Option {
	return func(e *Engine) {
		e.gas = e.gas.Merge(t)
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock replaces time.Now for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns an Engine bound to the given registry.
func New(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		gas:      DefaultGasTable(),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.err = e.gas.Validate()
	return e
}

// Registry returns the engine registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// GasCost returns the fixed cost of kind under this engine's table.
func (e *Engine) GasCost(kind string) int64 {
	return e.gas.Cost(kind)
}

// ExecuteBlueprint runs bp with cfg. Every failure caused by the blueprint
// itself ends up in the result status and logs; the error return is reserved
// for a misconfigured engine (no registry, negative gas costs).
func (e *Engine) ExecuteBlueprint(ctx context.Context, bp Blueprint, cfg Config) (Result, error) {
	return e.Execute(ctx, bp, cfg, nil)
}

// Execute is ExecuteBlueprint with an optional per-run observer.
func (e *Engine) Execute(ctx context.Context, bp Blueprint, cfg Config, obs Observer) (Result, error) {
	if e.registry == nil {
		return Result{}, ErrNoRegistry
	}
	if e.err != nil {
		return Result{}, e.err
	}

	r := &run{
		engine: e,
		ec:     newExecutionContext(cfg),
		obs:    obs,
		budget: cfg.maxGas(),
	}

	order, err := Analyze(bp)
	if err != nil {
		e.logger.Info().Err(err).Int("nodes", len(bp.Nodes)).Msg("Blueprint rejected by analyzer")
		r.ec.halt(StatusFailed)
		r.append(ExecutionLog{
			NodeID:   KindSystem,
			NodeKind: KindSystem,
			Error:    err.Error(),
		})
		return r.result(err.Error()), nil
	}

	e.logger.Debug().Int("nodes", len(order)).Int64("maxGas", r.budget).Msg("Starting blueprint run")
	runErr := r.loop(ctx, order)
	if r.ec.status == StatusRunning {
		r.ec.status = StatusCompleted
	}

	res := r.result(runErr)
	e.logger.Debug().
		Str("status", string(res.Status)).
		Int64("gasUsed", res.GasUsed).
		Int("logs", len(res.Logs)).
		Msg("Blueprint run finished")
	return res, nil
}

type run struct {
	engine *Engine
	ec     *ExecutionContext
	obs    Observer
	budget int64
}

// loop walks the order and returns the message of the failure that halted
// the run, if any.
func (r *run) loop(ctx context.Context, order []Node) string {
	for _, node := range order {
		if r.ec.gasRemaining <= 0 {
			r.ec.halt(StatusOutOfGas)
			return ""
		}

		rt, ok := r.engine.registry.Resolve(node.Kind)
		if !ok {
			msg := missingRuntimeMessage(node.Kind)
			r.engine.logger.Warn().Str("nodeId", node.ID).Str("kind", node.Kind).Msg("No runtime for node kind")
			r.ec.halt(StatusFailed)
			r.append(ExecutionLog{NodeID: node.ID, NodeKind: node.Kind, Error: msg})
			return msg
		}

		cost := r.engine.gas.Cost(node.Kind)
		if r.ec.gasRemaining < cost {
			r.ec.halt(StatusOutOfGas)
			r.append(ExecutionLog{
				NodeID:   node.ID,
				NodeKind: node.Kind,
				Inputs:   copyMap(node.Data),
				Error:    fmt.Sprintf("Out of gas: node requires %d, %d remaining", cost, r.ec.gasRemaining),
			})
			return ""
		}

		outputs, err := invoke(ctx, rt, node, r.ec)
		if err != nil {
			r.engine.logger.Info().Err(err).Str("nodeId", node.ID).Str("kind", node.Kind).Msg("Node runtime failed")
			r.ec.halt(StatusFailed)
			r.append(ExecutionLog{
				NodeID:   node.ID,
				NodeKind: node.Kind,
				Inputs:   copyMap(node.Data),
				Error:    err.Error(),
			})
			return err.Error()
		}

		r.ec.spend(cost)
		r.append(ExecutionLog{
			NodeID:   node.ID,
			NodeKind: node.Kind,
			Inputs:   copyMap(node.Data),
			Outputs:  copyMap(outputs),
			GasUsed:  cost,
		})
		r.ec.merge(outputs)
	}
	return ""
}

func (r *run) append(entry ExecutionLog) {
	entry.Timestamp = r.engine.now()
	r.ec.logs = append(r.ec.logs, entry)
	if r.obs != nil {
		r.obs.OnLog(entry)
	}
}

func (r *run) result(errMsg string) Result {
	return Result{
		Status:        r.ec.status,
		Logs:          r.ec.Logs(),
		FinalState:    r.ec.Variables(),
		Error:         errMsg,
		ResourceDelta: r.ec.ResourceDelta,
		Multiplier:    r.ec.Multiplier,
		GasUsed:       r.budget - r.ec.gasRemaining,
		GasRemaining:  r.ec.gasRemaining,
	}
}

// invoke calls the runtime and turns a panic into an ordinary runtime error.
func invoke(ctx context.Context, rt Runtime, node Node, ec *ExecutionContext) (outputs map[string]any, err error) {
	defer func() {
		if p := recover(); p != nil {
			outputs = nil
			err = fmt.Errorf("runtime panic: %v", p)
		}
	}()
	return rt.Execute(ctx, node, ec)
}

func copyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
