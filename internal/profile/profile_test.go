package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	raw := map[string]any{
		"cokey": 12345,
		"site":  "paddock 7",
		"horizons": []any{
			map[string]any{"top": 0.0, "bottom": 20.0, "clay": 24.5},
			map[string]any{"top": 20.0, "bottom": 50.0, "clay": 35.2},
		},
	}

	p, err := ParseProfile(raw)
	require.NoError(t, err)
	require.Equal(t, "12345", p.ID)
	require.Len(t, p.Horizons, 2)

	// Metadata keeps everything except the horizons list, untouched.
	require.Equal(t, "paddock 7", p.Meta["site"])
	require.Equal(t, 12345, p.Meta["cokey"])
	require.NotContains(t, p.Meta, "horizons")
}

func TestParseProfile_GeneratedID(t *testing.T) {
	mk := func() *Profile {
		p, err := ParseProfile(map[string]any{
			"horizons": []map[string]any{{"top": 0.0, "bottom": 20.0}},
		})
		require.NoError(t, err)
		return p
	}
	a, b := mk(), mk()
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}

func TestParseProfile_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"no horizons entry", map[string]any{"id": "p1"}},
		{"horizons not a list", map[string]any{"horizons": "deep"}},
		{"horizon not an object", map[string]any{"horizons": []any{"A"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float64", 24.5, 24.5, true},
		{"float32", float32(2), 2, true},
		{"int", 7, 7, true},
		{"uint64", uint64(9), 9, true},
		{"json number", json.Number("35.2"), 35.2, true},
		{"numeric string", "12.75", 12.75, true},
		{"text", "loam", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}
