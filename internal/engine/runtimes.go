package engine

import (
	"context"
	"fmt"
)

// Base kinds available in every registry.
const (
	KindAction   = "action"
	KindVariable = "variable"
)

func baseRuntimes() map[string]Runtime {
	return map[string]Runtime{
		KindTrigger:  RuntimeFunc(executeTrigger),
		KindAction:   RuntimeFunc(executeAction),
		KindVariable: RuntimeFunc(executeVariable),
	}
}

// executeTrigger marks the entry point as fired.
func executeTrigger(_ context.Context, node Node, _ *ExecutionContext) (map[string]any, error) {
	return map[string]any{"triggered": true, "triggeredBy": node.ID}, nil
}

// executeAction records the action and bumps a run-wide counter.
// Entries under data.set are copied to the outputs verbatim.
func executeAction(_ context.Context, node Node, ec *ExecutionContext) (map[string]any, error) {
	count := 0.0
	if v, ok := ec.Get("actionCount"); ok {
		n, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("variable actionCount is not numeric: %v", v)
		}
		count = n
	}

	outputs := map[string]any{
		"lastAction":  node.ID,
		"actionCount": count + 1,
	}

	if raw, ok := node.Param("set"); ok {
		set, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("action %s: set must be an object", node.ID)
		}
		for k, v := range set {
			outputs[k] = v
		}
	}
	return outputs, nil
}

// executeVariable assigns data.value, or the current value of data.from, to data.name.
func executeVariable(_ context.Context, node Node, ec *ExecutionContext) (map[string]any, error) {
	name, err := StringParam(node, "name")
	if err != nil {
		return nil, err
	}

	if from, ok := node.Param("from"); ok {
		key, ok := from.(string)
		if !ok {
			return nil, fmt.Errorf("variable %s: from must be a string", node.ID)
		}
		v, ok := ec.Get(key)
		if !ok {
			return nil, fmt.Errorf("variable %s: source variable %q is not set", node.ID, key)
		}
		return map[string]any{name: v}, nil
	}

	value, _ := node.Param("value")
	return map[string]any{name: value}, nil
}

// StringParam returns a required, non-empty string parameter.
func StringParam(node Node, key string) (string, error) {
	raw, ok := node.Param(key)
	if !ok {
		return "", fmt.Errorf("%s node %s: missing %q", node.Kind, node.ID, key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s node %s: %q must be a non-empty string", node.Kind, node.ID, key)
	}
	return s, nil
}

// NumberParam returns a numeric parameter, or def when it is absent.
func NumberParam(node Node, key string, def float64) (float64, error) {
	raw, ok := node.Param(key)
	if !ok || raw == nil {
		return def, nil
	}
	n, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("%s node %s: %q must be a number", node.Kind, node.ID, key)
	}
	return n, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
