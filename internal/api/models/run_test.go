package models

import (
	"testing"

	"blueprint/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultColumn_Scan(t *testing.T) {
	var r ResultColumn
	require.NoError(t, r.Scan([]byte(`{"status":"out_of_gas","gasUsed":10,"gasRemaining":2}`)))
	assert.Equal(t, engine.StatusOutOfGas, r.Status)
	assert.Equal(t, int64(2), r.GasRemaining)

	var fromString ResultColumn
	require.NoError(t, fromString.Scan(`{"status":"completed"}`))
	assert.Equal(t, engine.StatusCompleted, fromString.Status)

	var empty ResultColumn
	require.NoError(t, empty.Scan(nil))
	assert.Equal(t, ResultColumn{}, empty)

	assert.ErrorContains(t, empty.Scan(42), "cannot scan type int into ResultColumn")
}

func TestBlueprintColumn_Value(t *testing.T) {
	col := BlueprintColumn(engine.Blueprint{
		Nodes: []engine.Node{{ID: "t", Kind: engine.KindTrigger}},
	})

	v, err := col.Value()
	require.NoError(t, err)
	raw, ok := v.([]byte)
	require.True(t, ok)
	assert.JSONEq(t, `{"nodes":[{"id":"t","kind":"trigger"}],"edges":null}`, string(raw))

	var back BlueprintColumn
	require.NoError(t, back.Scan(raw))
	assert.Equal(t, col, back)
}
