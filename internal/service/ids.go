package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

func newID() string {
	return uuid.NewString()
}

// parseID validates a client supplied id and returns its canonical form.
func parseID(value, field string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", field, appErr.ErrInvalid)
	}
	return id.String(), nil
}
