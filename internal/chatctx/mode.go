package chatctx

import "fmt"

// Mode is the strategy used to hand document content to the model for one
// chat turn.
type Mode int

const (
	// ModeEmpty means the document has no usable content.
	ModeEmpty Mode = iota
	// ModeFull sends every chunk, ordered by position.
	ModeFull
	// ModeRAG sends only the chunks closest to the question.
	ModeRAG
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeRAG:
		return "rag"
	case ModeEmpty:
		return "empty"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModeFull, ModeRAG, ModeEmpty:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown context mode %d", int(m))
	}
}

func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return ModeFull, nil
	case "rag":
		return ModeRAG, nil
	case "empty":
		return ModeEmpty, nil
	default:
		return ModeEmpty, fmt.Errorf("unknown context mode %q", s)
	}
}
