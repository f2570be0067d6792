package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
)

func view(id types.WindowID, name string, r types.Rect) models.WindowView {
	return models.WindowView{ID: id, Identity: types.Identity{UUID: "app", Name: name}, Bounds: r, Native: r}
}

func TestVisualizeGroupSharesEdges(t *testing.T) {
	g := models.GroupView{
		ID: "4f1c2a7e-0000",
		Members: []models.WindowView{
			view(1, "w1", types.Rect{X: 0, Y: 0, Width: 200, Height: 200}),
			view(2, "w2", types.Rect{X: 200, Y: 0, Width: 200, Height: 200}),
		},
	}
	opts := VisualizationOptions{ShowIDs: true, MaxWidth: 43, MaxHeight: 20}

	lines := strings.Split(VisualizeGroup(g, opts), "\n")

	if lines[0] != "Group 4f1c2a7e (2 windows)" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 15 {
		t.Fatalf("got %d lines, want 15:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	edge := " +" + strings.Repeat("-", 19) + "+" + strings.Repeat("-", 19) + "+"
	if lines[2] != edge || lines[12] != edge {
		t.Errorf("top/bottom edges:\n%q\n%q\nwant %q", lines[2], lines[12], edge)
	}
	if !strings.Contains(lines[3], "[1] w1 (200x200)") || !strings.Contains(lines[3], "[2] w2 (200x200)") {
		t.Errorf("labels missing: %q", lines[3])
	}
	if strings.Count(lines[7], "|") != 3 {
		t.Errorf("middle row should show one shared divider: %q", lines[7])
	}
}

func TestCanvasDrawTextClips(t *testing.T) {
	c := NewCanvas(10, 1, false)
	c.DrawText(2, 0, "abcdef", 3)
	if got := c.String(); got != "  abc" {
		t.Errorf("String() = %q", got)
	}
	if c.Cell(20, 0) != ' ' {
		t.Error("out of range cell should be blank")
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		ev   models.Event
		want []string
	}{
		{
			name: "bounds",
			ev: models.Event{EventType: "bounds-changed", Timestamp: ts, Data: map[string]interface{}{
				"uuid": "app", "name": "w1", "left": 0, "top": 0, "width": 250, "height": 200,
				"changeType": "size", "deferred": true,
			}},
			want: []string{"12:30:00.000", "bounds-changed", "app/w1", "(0,0 250x200) size deferred"},
		},
		{
			name: "group",
			ev: models.Event{EventType: "group-changed", Timestamp: ts, Data: map[string]interface{}{
				"uuid": "app", "name": "w2", "action": "join", "targetGroup": "g1",
			}},
			want: []string{"group-changed", "join - -> g1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatEvent(&tt.ev)
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("FormatEvent() = %q, missing %q", got, s)
				}
			}
		})
	}
}

func TestPrintGroupsTable(t *testing.T) {
	res := &models.GroupsResult{
		Groups: []models.GroupView{{
			ID:      "g1",
			Members: []models.WindowView{view(2, "right", types.Rect{X: 200, Width: 200, Height: 200})},
		}},
		Ungrouped: []models.WindowView{view(7, "loose", types.Rect{X: 5, Y: 6, Width: 70, Height: 80})},
	}

	var buf bytes.Buffer
	PrintGroupsTable(&buf, res)
	out := buf.String()

	for _, s := range []string{"g1", "right", "200,0 200x200", "loose", "5,6 70x80"} {
		if !strings.Contains(out, s) {
			t.Errorf("table missing %q:\n%s", s, out)
		}
	}
}
