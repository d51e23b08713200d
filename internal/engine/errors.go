package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Structural error codes reported by the analyzer.
const (
	CodeCycleDetected = "CYCLE_DETECTED"
	CodeNoTrigger     = "NO_TRIGGER"
)

var (
	ErrCycleDetected = errors.New("cycle detected")
	ErrNoTrigger     = errors.New("no trigger node")

	// ErrNoRegistry is returned when an Engine is used without a registry.
	ErrNoRegistry = errors.New("engine has no runtime registry")

	ErrNegativeGasCost = errors.New("negative gas cost")
)

// StructuralError describes why a blueprint cannot be executed at all.
type StructuralError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	NodeIDs []string `json:"nodeIds,omitempty"`
}

func (e *StructuralError) Error() string {
	return e.Message
}

// Is lets callers match a StructuralError against ErrCycleDetected or ErrNoTrigger.
func (e *StructuralError) Is(target error) bool {
	switch target {
	case ErrCycleDetected:
		return e.Code == CodeCycleDetected
	case ErrNoTrigger:
		return e.Code == CodeNoTrigger
	}
	return false
}

func newCycleError(remaining []string) *StructuralError {
	return &StructuralError{
		Code:    CodeCycleDetected,
		Message: fmt.Sprintf("Cycle detected in blueprint involving nodes: %s", strings.Join(remaining, ", ")),
		NodeIDs: remaining,
	}
}

func newNoTriggerError() *StructuralError {
	return &StructuralError{
		Code:    CodeNoTrigger,
		Message: "Blueprint must contain at least one trigger node",
	}
}

func missingRuntimeMessage(kind string) string {
	return "No runtime found for node kind: " + kind
}
