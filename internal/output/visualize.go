package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/yourusername/grid-dock/internal/models"
	"github.com/yourusername/grid-dock/internal/types"
)

// VisualizationOptions controls the appearance of the visualization
type VisualizationOptions struct {
	UseUnicode bool
	ShowIDs    bool
	MaxWidth   int
	MaxHeight  int
}

// DefaultVisualizationOptions sizes the sketch to the terminal
func DefaultVisualizationOptions() VisualizationOptions {
	width, height := getTerminalSize()
	return VisualizationOptions{
		UseUnicode: supportsUnicode(),
		ShowIDs:    true,
		MaxWidth:   width,
		MaxHeight:  height / 2,
	}
}

// VisualizeGroup sketches the native rectangles of one group's members
func VisualizeGroup(g models.GroupView, opts VisualizationOptions) string {
	header := fmt.Sprintf("Group %s (%d windows)", shortGroup(g.ID), len(g.Members))
	if g.BoundsChanging {
		header += " dragging"
	}
	if len(g.Members) == 0 {
		return header + "\n"
	}

	rects := make([]types.Rect, len(g.Members))
	for i, m := range g.Members {
		rects[i] = m.Native
	}

	sc := NewScalingContext(rects, opts.MaxWidth, opts.MaxHeight)
	canvas := NewCanvas(opts.MaxWidth, sc.Height(), opts.UseUnicode)

	for _, m := range sortedWindows(g.Members) {
		x, y, w, h := sc.Box(m.Native)
		canvas.DrawBox(x, y, w, h)
		if h > 2 {
			canvas.DrawText(x+1, y+1, windowLabel(m, opts.ShowIDs), w-2)
		}
	}

	return header + "\n" + canvas.String() + "\n"
}

// PrintVisualization prints a coloured sketch of every group
func PrintVisualization(w io.Writer, res *models.GroupsResult, opts VisualizationOptions) {
	if len(res.Groups) == 0 {
		fmt.Fprintln(w, "No groups")
		return
	}

	var sb strings.Builder
	for i, g := range res.Groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(VisualizeGroup(g, opts))
	}

	if color.NoColor {
		fmt.Fprint(w, sb.String())
		return
	}
	color.New(color.FgCyan).Fprint(w, sb.String())
}

func windowLabel(win models.WindowView, showID bool) string {
	name := win.Identity.Name
	if name == "" {
		name = win.Identity.UUID
	}
	size := fmt.Sprintf("%dx%d", win.Native.Width, win.Native.Height)
	if showID {
		return fmt.Sprintf("[%d] %s (%s)", win.ID, name, size)
	}
	return fmt.Sprintf("%s (%s)", name, size)
}

// getTerminalSize returns the current terminal dimensions
func getTerminalSize() (width, height int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		// Default to 80x24 if we can't detect
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

// supportsUnicode checks if the terminal supports Unicode
func supportsUnicode() bool {
	lang := os.Getenv("LANG")
	lcAll := os.Getenv("LC_ALL")
	return strings.Contains(lang, "UTF-8") || strings.Contains(lcAll, "UTF-8")
}
