package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_SeedsBaseKinds(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{KindAction, KindTrigger, KindVariable}, reg.Kinds())

	for _, kind := range []string{KindTrigger, KindAction, KindVariable} {
		rt, ok := reg.Resolve(kind)
		assert.True(t, ok, kind)
		assert.NotNil(t, rt, kind)
	}

	_, ok := reg.Resolve("generator")
	assert.False(t, ok)
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	reg := NewRegistry()
	reg.Register(KindAction, RuntimeFunc(func(context.Context, Node, *ExecutionContext) (map[string]any, error) {
		return map[string]any{"custom": true}, nil
	}))

	rt, ok := reg.Resolve(KindAction)
	require.True(t, ok)
	out, err := rt.Execute(context.Background(), Node{ID: "a", Kind: KindAction}, newExecutionContext(Config{}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"custom": true}, out)
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, ok := reg.Resolve(KindTrigger)
				assert.True(t, ok)
			}
		}()
	}
	reg.Register("late", RuntimeFunc(executeTrigger))
	wg.Wait()

	_, ok := reg.Resolve("late")
	assert.True(t, ok)
}

func TestGasTable(t *testing.T) {
	table := DefaultGasTable()
	assert.Equal(t, int64(0), table.Cost(KindTrigger))
	assert.Equal(t, int64(10), table.Cost(KindAction))
	assert.Equal(t, DefaultGasCost, table.Cost("whatever"))

	merged := table.Merge(GasTable{"generator": 15, KindAction: 4})
	assert.Equal(t, int64(15), merged.Cost("generator"))
	assert.Equal(t, int64(4), merged.Cost(KindAction))
	assert.Equal(t, int64(10), table.Cost(KindAction), "merge must not mutate the receiver")
}
