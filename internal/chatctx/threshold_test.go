package chatctx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholdsLookup(t *testing.T) {
	th := DefaultThresholds()
	require.Equal(t, 25000, th.For("deepseek"))
	require.Equal(t, 25000, th.For(" DeepSeek "))
	require.Equal(t, 100000, th.For("gemini"))
	require.Equal(t, 25000, th.For("claude"), "unknown model uses the lowest threshold")
	require.Equal(t, 25000, th.For(""))
	require.Equal(t, []string{"deepseek", "gemini"}, th.Models())
}

func TestThresholdsMultiIsOneAndAHalfFloored(t *testing.T) {
	th := DefaultThresholds()
	require.Equal(t, 37500, th.ForMulti("deepseek"))
	require.Equal(t, 150000, th.ForMulti("gemini"))

	odd, err := NewThresholds(map[string]int{"m": 25001})
	require.NoError(t, err)
	require.Equal(t, 37501, odd.ForMulti("m"))
}

func TestNewThresholdsValidation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]int
	}{
		{name: "empty", values: nil},
		{name: "zero", values: map[string]int{"gemini": 0}},
		{name: "negative", values: map[string]int{"gemini": -1}},
		{name: "blank model", values: map[string]int{" ": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewThresholds(tt.values)
			require.Error(t, err)
		})
	}
}
