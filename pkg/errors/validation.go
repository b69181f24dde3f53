package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds person, partnership and tree identifiers.
const maxIDLength = 256

// ValidateID validates an identifier received from outside the process
// (request bodies, flags, store lookups). kind names the entity in the
// error message, e.g. "person" or "tree".
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "%s id contains invalid control characters", kind)
		}
	}
	return nil
}

// ValidateTreeName validates a tree name used as a store key.
// It rejects names that could be used for path traversal.
func ValidateTreeName(name string) error {
	if err := ValidateID("tree", name); err != nil {
		return err
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidID, "tree name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateDepth checks a traversal depth limit from a policy.
func ValidateDepth(name string, depth int) error {
	if depth < 0 {
		return New(ErrCodeInvalidPolicy, "%s must be >= 0, got %d", name, depth)
	}
	if depth > 64 {
		return New(ErrCodeInvalidPolicy, "%s must be <= 64, got %d", name, depth)
	}
	return nil
}
