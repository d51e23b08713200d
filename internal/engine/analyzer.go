package engine

import (
	"errors"
)

// Analysis is the wire shape of an analyzer verdict.
type Analysis struct {
	Success bool             `json:"success"`
	Order   []Node           `json:"order,omitempty"`
	Error   *StructuralError `json:"error,omitempty"`
}

// AnalyzeBlueprint runs Analyze and packs the outcome into an Analysis.
func AnalyzeBlueprint(bp Blueprint) Analysis {
	order, err := Analyze(bp)
	if err != nil {
		var serr *StructuralError
		if !errors.As(err, &serr) {
			serr = &StructuralError{Message: err.Error()}
		}
		return Analysis{Error: serr}
	}
	return Analysis{Success: true, Order: order}
}

// Analyze validates the blueprint and returns its execution order.
//
// The order comes from Kahn's algorithm over a FIFO queue seeded with the
// zero in-degree nodes in blueprint order, so it is stable for a fixed graph
// but not sorted by id. Edges pointing at unknown node ids are ignored.
// When a node id appears more than once only its first occurrence counts.
//
// On a cycle the returned *StructuralError lists every node whose in-degree
// never reached zero, which can include nodes downstream of the cycle.
func Analyze(bp Blueprint) ([]Node, error) {
	nodes := make([]Node, 0, len(bp.Nodes))
	byID := make(map[string]Node, len(bp.Nodes))
	for _, n := range bp.Nodes {
		if _, dup := byID[n.ID]; dup {
			continue
		}
		byID[n.ID] = n
		nodes = append(nodes, n)
	}

	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range bp.Edges {
		_, srcOK := byID[e.Source]
		_, dstOK := byID[e.Target]
		if !srcOK || !dstOK {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]Node, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, byID[id])

		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(nodes) {
		remaining := make([]string, 0, len(nodes)-len(order))
		for _, n := range nodes {
			if inDegree[n.ID] > 0 {
				remaining = append(remaining, n.ID)
			}
		}
		return nil, newCycleError(remaining)
	}

	for _, n := range order {
		if n.Kind == KindTrigger {
			return order, nil
		}
	}
	return nil, newNoTriggerError()
}
