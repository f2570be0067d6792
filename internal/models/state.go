package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/yourusername/grid-dock/internal/types"
)

// State is the subset of a GridServer dump the gridserver backend reads.
type State struct {
	Windows map[string]*Window `json:"windows"`
}

// Window represents a window in a GridServer dump
type Window struct {
	ID          int                    `json:"id"`
	Title       string                 `json:"title"`
	AppName     string                 `json:"appName"`
	PID         int                    `json:"pid"`
	Frame       [][]interface{}        `json:"frame"` // [[x, y], [width, height]] - can contain float64 or bool for overflow
	IsMinimized bool                   `json:"isMinimized"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// toFloat64 converts interface{} to float64, handling bool for overflow
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case bool:
		// Bool represents overflow - return a large number
		return 9999999.0
	default:
		return 0
	}
}

func (w *Window) frameValue(i, j int) float64 {
	if len(w.Frame) > i && len(w.Frame[i]) > j {
		return toFloat64(w.Frame[i][j])
	}
	return 0
}

// GetX returns the window's X position
func (w *Window) GetX() float64 { return w.frameValue(0, 0) }

// GetY returns the window's Y position
func (w *Window) GetY() float64 { return w.frameValue(0, 1) }

// GetWidth returns the window's width
func (w *Window) GetWidth() float64 { return w.frameValue(1, 0) }

// GetHeight returns the window's height
func (w *Window) GetHeight() float64 { return w.frameValue(1, 1) }

// Rect returns the frame rounded to device pixels.
func (w *Window) Rect() types.Rect {
	return types.Rect{
		X:      int(math.Round(w.GetX())),
		Y:      int(math.Round(w.GetY())),
		Width:  int(math.Round(w.GetWidth())),
		Height: int(math.Round(w.GetHeight())),
	}
}

// ParseState parses the dump result into a State struct
func ParseState(result map[string]interface{}) (*State, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// FindWindowByID finds a window by its ID
func (s *State) FindWindowByID(id int) *Window {
	return s.Windows[fmt.Sprintf("%d", id)]
}
