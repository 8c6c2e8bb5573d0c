package images

import (
	"context"
	"fmt"

	"github.com/starford/marquee/internal/apperr"
)

// Picker chooses a source file on the operator's machine. It returns the
// picked path, or an error wrapping apperr.ErrCancelled when the operator
// backs out.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(ctx context.Context) (string, error)

// Pick calls f.
func (f PickerFunc) Pick(ctx context.Context) (string, error) {
	return f(ctx)
}

// PathPicker is a Picker that always picks the same path. An empty path
// counts as a cancelled pick.
type PathPicker string

// Pick returns the fixed path.
func (p PathPicker) Pick(_ context.Context) (string, error) {
	if p == "" {
		return "", fmt.Errorf("no path given: %w", apperr.ErrCancelled)
	}
	return string(p), nil
}
