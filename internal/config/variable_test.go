package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstant(t *testing.T) {
	c := &Constant{Val: int64(5)}

	assert.Equal(t, VarConstant, c.Kind())
	assert.Equal(t, int64(5), c.Value())

	err := c.SetValue(int64(6))
	assert.ErrorIs(t, err, ErrVariableImmutable)
	assert.Equal(t, int64(5), c.Value())
}

func TestMutable_SetValue(t *testing.T) {
	tests := []struct {
		name    string
		initial any
		new     any
		wantErr error
	}{
		{"int to int", int64(1), int64(2), nil},
		{"string to string", "a", "b", nil},
		{"int to string", int64(1), "nope", ErrTypeMismatch},
		{"string to int", "a", int64(2), ErrTypeMismatch},
		{"float to int", 1.5, int64(2), ErrTypeMismatch},
		{"bool to bool", true, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mutable{Val: tt.initial}

			err := m.SetValue(tt.new)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.initial, m.Value())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.new, m.Value())
		})
	}
}

func TestEnumeration_SetValue(t *testing.T) {
	tests := []struct {
		name    string
		new     any
		wantErr error
	}{
		{"member of options", "wipe", nil},
		{"current stays valid", "grow", nil},
		{"correct type, not an option", "spiral", ErrNotAnOption},
		{"wrong type", int64(1), ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Enumeration{
				Name:    "transition",
				Current: "grow",
				Options: []any{"grow", "wipe", "fade"},
			}

			err := e.SetValue(tt.new)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "grow", e.Value())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.new, e.Value())
		})
	}
}

func TestEnumeration_TypeNeverChanges(t *testing.T) {
	e := &Enumeration{Name: "n", Current: int64(1), Options: []any{int64(1), int64(2)}}

	require.NoError(t, e.SetValue(int64(2)))
	require.ErrorIs(t, e.SetValue("2"), ErrTypeMismatch)
	assert.Equal(t, int64(2), e.Value())
}
