package request

import "blueprint/internal/engine"

type AnalyzeBlueprint struct {
	Blueprint engine.Blueprint `json:"blueprint"`
}

type ExecuteBlueprint struct {
	Blueprint engine.Blueprint `json:"blueprint"`
	Config    engine.Config    `json:"config"`
}

// ExecuteBatch holds independent runs; each item is executed on its own.
type ExecuteBatch struct {
	Runs []ExecuteBlueprint `json:"runs" validate:"required,min=1,max=50,dive"`
}
