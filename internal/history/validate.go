package history

import (
	"fmt"
	"regexp"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// MaxNameLength bounds run and dataset names.
const MaxNameLength = 128

// nameRegex matches valid run and dataset names. Colons and glob characters
// are excluded because names become Redis key segments and scan patterns.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateName validates a run or dataset name.
func ValidateName(field, name string) error {
	if name == "" {
		return errors.ValidationError(fmt.Sprintf("%s is required", field)).
			WithDetail("field", field)
	}

	if len(name) > MaxNameLength {
		return errors.ValidationError(fmt.Sprintf("%s: maximum length is %d characters", field, MaxNameLength)).
			WithDetail("field", field)
	}

	if !nameRegex.MatchString(name) {
		return errors.ValidationError(fmt.Sprintf("%s %q must contain only alphanumeric characters, dots, hyphens and underscores, and start with alphanumeric", field, name)).
			WithDetail("field", field)
	}

	return nil
}
