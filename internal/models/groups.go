package models

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/grid-dock/internal/types"
)

// WindowView is a tracked window as reported over IPC.
type WindowView struct {
	ID       types.WindowID `json:"id"`
	Identity types.Identity `json:"identity"`
	Bounds   types.Rect     `json:"bounds"` // visible bounds
	Native   types.Rect     `json:"native"`
}

// GroupView is one group as reported over IPC.
type GroupView struct {
	ID             types.GroupID `json:"id"`
	BoundsChanging bool          `json:"boundsChanging"`
	Members        []WindowView  `json:"members"`
}

// GroupsResult is the result of group.list.
type GroupsResult struct {
	Groups    []GroupView  `json:"groups"`
	Ungrouped []WindowView `json:"ungrouped"`
}

// MoveResult is the result of bounds.update and bounds.set.
type MoveResult struct {
	Applied bool       `json:"applied"`
	Bounds  types.Rect `json:"bounds"`
	Moved   int        `json:"moved"`
}

// MembershipResult is the result of the group.* membership calls.
type MembershipResult struct {
	Group    types.GroupID `json:"group,omitempty"`
	Deferred bool          `json:"deferred"`
}

// ToMap converts a typed result into the generic response form.
func ToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return m, nil
}

// FromMap decodes a generic map (response result or request params) into v.
func FromMap(m map[string]interface{}, v interface{}) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
