package chatctx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModeMarshalsToWireNames(t *testing.T) {
	out, err := json.Marshal(map[string]Mode{"context_mode": ModeRAG})
	require.NoError(t, err)
	require.JSONEq(t, `{"context_mode":"rag"}`, string(out))

	for _, m := range []Mode{ModeFull, ModeRAG, ModeEmpty} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
}

func TestModeRejectsUnknownValues(t *testing.T) {
	_, err := Mode(42).MarshalText()
	require.Error(t, err)

	var m Mode
	require.Error(t, json.Unmarshal([]byte(`"hybrid"`), &m))
}
