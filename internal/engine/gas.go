package engine

import (
	"fmt"
	"sort"
)

// DefaultGasCost is charged for registered kinds missing from the gas table.
const DefaultGasCost int64 = 1

// GasTable is the static per-kind cost table. Costs never depend on node data.
type GasTable map[string]int64

// DefaultGasTable returns the costs of the base kinds.
func DefaultGasTable() GasTable {
	return GasTable{
		KindTrigger:  0,
		KindAction:   10,
		KindVariable: 2,
	}
}

// Cost returns the fixed cost of kind.
func (t GasTable) Cost(kind string) int64 {
	if cost, ok := t[kind]; ok {
		return cost
	}
	return DefaultGasCost
}

// Merge returns a copy of t overlaid with other.
func (t GasTable) Merge(other GasTable) GasTable {
	merged := make(GasTable, len(t)+len(other))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Validate rejects tables that would refund gas.
func (t GasTable) Validate() error {
	kinds := make([]string, 0, len(t))
	for k := range t {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if t[k] < 0 {
			return fmt.Errorf("%w: %s costs %d", ErrNegativeGasCost, k, t[k])
		}
	}
	return nil
}
