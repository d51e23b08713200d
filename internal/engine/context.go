package engine

import (
	"time"
)

// Status is the state of one run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusOutOfGas  Status = "out_of_gas"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusOutOfGas
}

// KindSystem tags the synthetic log entry emitted when the analyzer rejects a blueprint.
const KindSystem = "system"

// ExecutionLog is one entry of the run log.
type ExecutionLog struct {
	NodeID    string         `json:"nodeId"`
	NodeKind  string         `json:"nodeKind"`
	Timestamp time.Time      `json:"timestamp"`
	Inputs    map[string]any `json:"inputs,omitempty"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	GasUsed   int64          `json:"gasUsed"`
	Error     string         `json:"error,omitempty"`
}

// ExecutionContext is the run-scoped state. It is created by the engine for a
// single run and must not outlive it.
//
// Runtimes read variables through Get and Variables; they change variables
// only by returning outputs. ResourceDelta and Multiplier are scratch slots
// for cross-cutting effects: the engine never interprets them.
type ExecutionContext struct {
	variables    map[string]any
	gasRemaining int64
	logs         []ExecutionLog
	status       Status

	ResourceDelta float64
	Multiplier    float64
}

func newExecutionContext(cfg Config) *ExecutionContext {
	vars := make(map[string]any, len(cfg.InitialVariables))
	for k, v := range cfg.InitialVariables {
		vars[k] = v
	}
	return &ExecutionContext{
		variables:    vars,
		gasRemaining: cfg.maxGas(),
		status:       StatusRunning,
		Multiplier:   1,
	}
}

// Get returns the current value of a variable.
func (ec *ExecutionContext) Get(key string) (any, bool) {
	v, ok := ec.variables[key]
	return v, ok
}

// Variables returns a copy of the variable store.
func (ec *ExecutionContext) Variables() map[string]any {
	out := make(map[string]any, len(ec.variables))
	for k, v := range ec.variables {
		out[k] = v
	}
	return out
}

// GasRemaining returns the unspent budget.
func (ec *ExecutionContext) GasRemaining() int64 {
	return ec.gasRemaining
}

// Status returns the current run status.
func (ec *ExecutionContext) Status() Status {
	return ec.status
}

// Logs returns the entries appended so far.
func (ec *ExecutionContext) Logs() []ExecutionLog {
	out := make([]ExecutionLog, len(ec.logs))
	copy(out, ec.logs)
	return out
}

func (ec *ExecutionContext) halt(s Status) {
	if ec.status.Terminal() {
		return
	}
	ec.status = s
}

func (ec *ExecutionContext) spend(cost int64) {
	ec.gasRemaining -= cost
}

func (ec *ExecutionContext) merge(outputs map[string]any) {
	for k, v := range outputs {
		ec.variables[k] = v
	}
}
