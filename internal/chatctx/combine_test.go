package chatctx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombineSources(t *testing.T) {
	out := CombineSources([]Source{
		{Title: "Biology", Context: "cells"},
		{Title: "Chemistry", Context: "atoms"},
	})
	require.Equal(t, "[SOURCE: Biology]\ncells\n---\n[SOURCE: Chemistry]\natoms", out)
	require.Equal(t, "", CombineSources(nil))
}

func TestCharCap(t *testing.T) {
	require.Equal(t, 120000, CharCap("gemini"))
	require.Equal(t, 120000, CharCap("Gemini"))
	require.Equal(t, 50000, CharCap("deepseek"))
	require.Equal(t, 50000, CharCap("other"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "abc", max: 5, want: "abc"},
		{name: "exact", in: "abc", max: 3, want: "abc"},
		{name: "cut", in: "abcdef", max: 4, want: "abcd"},
		{name: "multibyte", in: "čćžšđ", max: 2, want: "čć"},
		{name: "zero", in: "abc", max: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}
