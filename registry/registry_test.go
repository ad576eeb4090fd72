package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentmcp/internal/testutil"
	"github.com/hupe1980/agentmcp/tool"
)

func adapter(t *testing.T, name string) *tool.Adapter {
	t.Helper()

	a, err := tool.NewAdapter(name, "desc", nil, testutil.Returning(name))
	require.NoError(t, err)

	return a
}

func TestBuilder(t *testing.T) {
	reg, err := NewBuilder().Add(adapter(t, "b"), adapter(t, "a")).Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name())

	res, err := reg.Invoke(context.Background(), "b", nil)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Text())

	_, err = reg.Invoke(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewBuilder().Add(adapter(t, "a"), adapter(t, "a"), adapter(t, "bad name"), nil).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate tool name "a"`)
	assert.Contains(t, err.Error(), `invalid tool name "bad name"`)
	assert.Contains(t, err.Error(), "nil tool")
}

func TestRegistry_ToolsIsACopy(t *testing.T) {
	reg, err := NewBuilder().Add(adapter(t, "a")).Build()
	require.NoError(t, err)

	tools := reg.Tools()
	tools[0] = nil

	assert.NotNil(t, reg.Tools()[0])
}
