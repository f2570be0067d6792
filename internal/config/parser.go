package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// Duration patterns
	msPattern = regexp.MustCompile(`^(\d+)\s*ms$`)
	sPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*s$`)
)

// Duration is a time.Duration read from config. It accepts "60ms", "0.15s"
// or a bare integer number of milliseconds.
type Duration time.Duration

// ParseDuration parses a config duration string
// Supported formats:
//   - "60ms" - Milliseconds
//   - "1s", "0.15s" - Seconds
//   - "60" - Milliseconds, unit omitted
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if matches := msPattern.FindStringSubmatch(s); matches != nil {
		value, _ := strconv.Atoi(matches[1])
		return time.Duration(value) * time.Millisecond, nil
	}

	if matches := sPattern.FindStringSubmatch(s); matches != nil {
		value, _ := strconv.ParseFloat(matches[1], 64)
		return time.Duration(value * float64(time.Second)), nil
	}

	if value, err := strconv.Atoi(s); err == nil && value >= 0 {
		return time.Duration(value) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// FormatDuration converts a duration back to its config string
func FormatDuration(d time.Duration) string {
	if d%time.Second == 0 && d != 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d/time.Millisecond)
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return FormatDuration(time.Duration(d))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	v, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v) * time.Millisecond)
		return nil
	case string:
		parsed, err := ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(data))
	}
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
