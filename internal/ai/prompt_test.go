package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeForCache(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "spaces collapsed", in: "a    b  c", want: "a b c"},
		{name: "blank lines capped", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "lines right trimmed", in: "a  \t\nb ", want: "a\nb"},
		{name: "outer trim", in: "\n\n  hello  \n", want: "hello"},
		{name: "nfc", in: "Cafe\u0301 s\u0327", want: "Caf\u00e9 \u015f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeForCache(tt.in))
		})
	}
}

func TestNormalizeForCacheIsStable(t *testing.T) {
	in := "x  y\n\n\n\nz   \n"
	once := NormalizeForCache(in)
	require.Equal(t, once, NormalizeForCache(once))
}

func TestBuildMessagesMulti(t *testing.T) {
	history := []Message{{Role: RoleUser, Content: "q1"}, {Role: RoleAssistant, Content: "a1"}}
	system, msgs := buildMessages(true, "[SOURCE: A]\nbody", "q2", history)
	require.Equal(t, systemPromptMulti, system)
	require.Len(t, msgs, 4)
	require.Equal(t, "SOURCE MATERIALS:\n\n[SOURCE: A]\nbody", msgs[0].Content)
	require.Equal(t, history, msgs[1:3])
	require.Equal(t, Message{Role: RoleUser, Content: "QUESTION: q2"}, msgs[3])
}
