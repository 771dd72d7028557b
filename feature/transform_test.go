package feature

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransform(t *testing.T) {
	tests := []struct {
		name        string
		mode        TransformMode
		max         float32
		transformed bool
	}{
		{"AutoBelowThreshold", TransformAuto, 999, false},
		{"AutoAtThreshold", TransformAuto, 1000, false},
		{"AutoAboveThreshold", TransformAuto, 1001, true},
		{"On", TransformOn, 10, true},
		{"OffIgnoresMagnitude", TransformOff, 50000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Matrix{
				IDs:     []string{"1", "2"},
				Columns: []string{"CD45"},
				Data:    []float32{0, tt.max},
			}

			got := ApplyTransform(m, tt.mode)

			assert.Equal(t, tt.transformed, got)
			if tt.transformed {
				// log10(1+0) stays zero, the maximum shrinks.
				assert.Equal(t, float32(0), m.Data[0])
				assert.InDelta(t, math.Log10(1+float64(tt.max)), float64(m.Data[1]), 1e-6)
			} else {
				assert.Equal(t, tt.max, m.Data[1])
			}
		})
	}
}

func TestTransformModeString(t *testing.T) {
	assert.Equal(t, "auto", TransformAuto.String())
	assert.Equal(t, "true", TransformOn.String())
	assert.Equal(t, "false", TransformOff.String())
	assert.Contains(t, TransformMode(9).String(), "unknown")
}

func TestParseTransformMode(t *testing.T) {
	tests := []struct {
		input    string
		expected TransformMode
		wantErr  bool
	}{
		{"auto", TransformAuto, false},
		{"", TransformAuto, false},
		{"true", TransformOn, false},
		{"false", TransformOff, false},
		{"yes", 0, true},
		{"TRUE", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTransformMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadTransformConfig(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected TransformMode
		wantErr  bool
	}{
		{"BareTrue", "transform: true\n", TransformOn, false},
		{"BareFalse", "transform: false\n", TransformOff, false},
		{"QuotedTrue", "transform: \"true\"\n", TransformOn, false},
		{"Auto", "transform: auto\n", TransformAuto, false},
		{"KeyAbsent", "other: 1\n", TransformAuto, false},
		{"EmptyFile", "", TransformAuto, false},
		{"WrongType", "transform: 42\n", 0, true},
		{"BadValue", "transform: maybe\n", 0, true},
		{"BadYAML", "transform: [unclosed\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			got, err := LoadTransformConfig(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadTransformConfigMissing(t *testing.T) {
	_, err := LoadTransformConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
