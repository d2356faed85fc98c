package db

import (
	"fmt"

	"github.com/google/uuid"

	svcErr "github.com/oggyb/tripmate-match/internal/errors"
)

// ParseID validates a user or match id and returns its canonical lowercase
// form. field names the argument in the error message.
func ParseID(field, raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a UUID", svcErr.ErrInvalidArgument, field)
	}
	return id.String(), nil
}
