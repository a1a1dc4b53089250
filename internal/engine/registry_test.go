package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, stub StateStore, args []string) ([]byte, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry([]Method{
		{Name: "getUser", Handler: noop},
		{Name: "createUser", Handler: noop},
	})
	require.NoError(t, err)

	m, ok := reg.Resolve("createUser")
	require.True(t, ok)
	assert.Equal(t, "createUser", m.Name)

	_, ok = reg.Resolve("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"getUser", "createUser"}, reg.Names())
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		methods []Method
	}{
		{"empty name", []Method{{Name: "", Handler: noop}}},
		{"nil handler", []Method{{Name: "x"}}},
		{"duplicate", []Method{{Name: "x", Handler: noop}, {Name: "x", Handler: noop}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.methods)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_NamesIsCopy(t *testing.T) {
	reg, err := NewRegistry([]Method{{Name: "a", Handler: noop}})
	require.NoError(t, err)
	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, reg.Names())
}
