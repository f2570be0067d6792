package window

import (
	"fmt"

	"github.com/yourusername/grid-dock/internal/types"
)

// Describe builds a Window for a live native handle. Offset and size hints
// are read from the backend when it can report them; rules are merged over
// the native hints.
func Describe(n Native, id types.WindowID, identity types.Identity, rules types.Constraints) (*Window, error) {
	if _, err := n.Bounds(id); err != nil {
		return nil, fmt.Errorf("describe window %d: %w", id, err)
	}

	w := &Window{ID: id, Identity: identity}

	if r, ok := n.(OffsetReader); ok {
		offset, err := r.Offset(id)
		if err != nil {
			return nil, fmt.Errorf("offset for window %d: %w", id, err)
		}
		w.Offset = offset
	}

	if r, ok := n.(ConstraintReader); ok {
		c, err := r.Constraints(id)
		if err != nil {
			return nil, fmt.Errorf("size hints for window %d: %w", id, err)
		}
		w.Constraints = c
	}
	w.Constraints = w.Constraints.Merge(rules)

	return w, nil
}

// ReadState returns the window's display state, normal when the backend
// cannot tell.
func ReadState(n Native, id types.WindowID) State {
	r, ok := n.(StateReader)
	if !ok {
		return StateNormal
	}
	s, err := r.WindowState(id)
	if err != nil {
		return StateNormal
	}
	return s
}
