package response

import (
	"blueprint/internal/engine"
	"time"
)

type Execution struct {
	RunID  string        `json:"runId"`
	Result engine.Result `json:"result"`
}

type Batch struct {
	Runs []Execution `json:"runs"`
}

type Runtime struct {
	Kind    string `json:"kind"`
	GasCost int64  `json:"gasCost"`
}

// Run is the list view of a stored run.
type Run struct {
	ID         string        `json:"id"`
	Status     engine.Status `json:"status"`
	MaxGas     int64         `json:"maxGas"`
	GasUsed    int64         `json:"gasUsed"`
	NodeCount  int           `json:"nodeCount"`
	Error      string        `json:"error,omitempty"`
	DurationMs int64         `json:"durationMs"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type RunWithDetails struct {
	Run
	IdempotencyKey string           `json:"idempotencyKey,omitempty"`
	Blueprint      engine.Blueprint `json:"blueprint"`
	Result         engine.Result    `json:"result"`
}
