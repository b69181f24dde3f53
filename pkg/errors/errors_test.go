package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodePersonNotFound, "focus person %q not in tree", "p9"), `PERSON_NOT_FOUND: focus person "p9" not in tree`},
		{"with cause", Wrap(ErrCodeTreeNotFound, errors.New("no documents"), "tree %s", "smith"), "TREE_NOT_FOUND: tree smith: no documents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "connect to store")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want the cause", errors.Unwrap(err))
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}
	if err.Message != "connect to store" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestCodeLookup(t *testing.T) {
	missingFile := New(ErrCodeFileNotFound, "smith.json")
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"coded", New(ErrCodeInvalidPolicy, "ancestor depth -1"), ErrCodeInvalidPolicy, "ancestor depth -1"},
		{"outer code wins", Wrap(ErrCodeTreeNotFound, missingFile, "tree smith"), ErrCodeTreeNotFound, "tree smith"},
		{"behind fmt wrap", fmt.Errorf("[layout]: %w", New(ErrCodeInvalidConfig, "cardWidth")), ErrCodeInvalidConfig, "cardWidth"},
		{"uncoded", errors.New("disk full"), "", "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Error("Is(INTERNAL_ERROR) = true")
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	if Is(nil, ErrCodeInvalidInput) || GetCode(nil) != "" {
		t.Error("nil error carries a code")
	}
}

func TestIsNotFoundAndIsInvalid(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMissing bool
		wantInvalid bool
	}{
		{"person", New(ErrCodePersonNotFound, "p1"), true, false},
		{"tree", Wrap(ErrCodeTreeNotFound, errors.New("no documents"), "smith"), true, false},
		{"config", New(ErrCodeInvalidConfig, "cardWidth"), false, true},
		{"policy", New(ErrCodeInvalidPolicy, "depth"), false, true},
		{"network", New(ErrCodeNetwork, "redis"), false, false},
		{"plain", errors.New("plain"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.wantMissing {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.wantMissing)
			}
			if got := IsInvalid(tt.err); got != tt.wantInvalid {
				t.Errorf("IsInvalid() = %v, want %v", got, tt.wantInvalid)
			}
		})
	}
}
