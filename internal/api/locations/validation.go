package locations

import (
	"errors"
	"strings"
)

const maxNameLength = 100

// ValidateName checks a location name from a create request.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return errors.New("name is required")
	case len(name) > maxNameLength:
		return errors.New("name must be 100 characters or less")
	}
	return nil
}
