package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"mpspline/internal/spline"
)

func TestParseDepths(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []spline.Interval
		wantErr bool
	}{
		{
			"standard bands",
			"0-5,5-15,15-30",
			[]spline.Interval{{Top: 0, Bottom: 5}, {Top: 5, Bottom: 15}, {Top: 15, Bottom: 30}},
			false,
		},
		{
			"whitespace tolerated",
			" 0-30 , 30-100 ",
			[]spline.Interval{{Top: 0, Bottom: 30}, {Top: 30, Bottom: 100}},
			false,
		},
		{"usda preset", "usda", spline.USDAPedonDepths, false},
		{"shallow preset", "Shallow", spline.ShallowDepths, false},
		{"gsm preset", "gsm", spline.GlobalSoilMapDepths, false},
		{"missing dash", "0:5", nil, true},
		{"non-numeric bound", "0-five", nil, true},
		{"empty", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDepths(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseDepths(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestSplitNonEmpty(t *testing.T) {
	require.Equal(t, []string{"clay", "sand"}, splitNonEmpty("clay, sand"))
	require.Equal(t, []string{"clay"}, splitNonEmpty(",clay,,"))
	require.Nil(t, splitNonEmpty(""))
}

func TestResolveFormat(t *testing.T) {
	restore := func(f, o string) { format, outputPath = f, o }
	defer restore(format, outputPath)

	format, outputPath = "", ""
	require.Equal(t, "json", resolveFormat())

	format, outputPath = "", "out.CSV"
	require.Equal(t, "csv", resolveFormat())

	format, outputPath = "json", "out.csv"
	require.Equal(t, "json", resolveFormat())
}
