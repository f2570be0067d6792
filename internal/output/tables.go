package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
)

// PrintGroupsTable prints every tracked window, grouped windows first
func PrintGroupsTable(w io.Writer, res *models.GroupsResult) {
	table := tablewriter.NewWriter(w)
	table.Header("Group", "ID", "App", "Name", "Bounds", "Native", "Dragging")

	for _, g := range res.Groups {
		dragging := ""
		if g.BoundsChanging {
			dragging = "yes"
		}
		for _, win := range sortedWindows(g.Members) {
			table.Append(
				shortGroup(g.ID),
				fmt.Sprintf("%d", win.ID),
				truncate(win.Identity.UUID, 20),
				truncate(win.Identity.Name, 20),
				formatRect(win.Bounds),
				formatRect(win.Native),
				dragging,
			)
		}
	}

	for _, win := range sortedWindows(res.Ungrouped) {
		table.Append(
			"-",
			fmt.Sprintf("%d", win.ID),
			truncate(win.Identity.UUID, 20),
			truncate(win.Identity.Name, 20),
			formatRect(win.Bounds),
			formatRect(win.Native),
			"",
		)
	}

	table.Render()
}

// FormatEvent renders one streamed event as a single line
func FormatEvent(ev *models.Event) string {
	d := ev.Data
	who := fmt.Sprintf("%v/%v", d["uuid"], d["name"])

	var detail string
	switch ev.EventType {
	case "group-changed":
		detail = fmt.Sprintf("%v %v -> %v", d["action"], valueOr(d["sourceGroup"], "-"), valueOr(d["targetGroup"], "-"))
	default:
		detail = fmt.Sprintf("(%v,%v %vx%v)", d["left"], d["top"], d["width"], d["height"])
		if ct, ok := d["changeType"]; ok {
			detail += fmt.Sprintf(" %v", ct)
		}
		if ws, ok := d["windowState"]; ok {
			detail += fmt.Sprintf(" %v", ws)
		}
		if d["deferred"] == true {
			detail += " deferred"
		}
	}

	return fmt.Sprintf("%s %-26s %-20s %s", ev.Timestamp.Format("15:04:05.000"), ev.EventType, who, detail)
}

// PrintEvent prints an event line, coloured by event type
func PrintEvent(w io.Writer, ev *models.Event) {
	line := FormatEvent(ev)
	switch ev.EventType {
	case "begin-user-bounds-changing", "end-user-bounds-changing":
		color.New(color.FgYellow).Fprintln(w, line)
	case "group-changed":
		color.New(color.FgMagenta).Fprintln(w, line)
	case "bounds-changed":
		color.New(color.FgGreen).Fprintln(w, line)
	default:
		fmt.Fprintln(w, line)
	}
}

// Helper functions

func sortedWindows(windows []models.WindowView) []models.WindowView {
	out := append([]models.WindowView(nil), windows...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func shortGroup(id types.GroupID) string {
	s := string(id)
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

func formatRect(r types.Rect) string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

func valueOr(v interface{}, fallback string) interface{} {
	if v == nil || v == "" {
		return fallback
	}
	return v
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
