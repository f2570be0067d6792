package types

import "testing"

func TestRectShiftDeltaRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
	}{
		{"identical", Rect{10, 20, 300, 400}, Rect{10, 20, 300, 400}},
		{"pure move", Rect{0, 0, 200, 200}, Rect{15, -30, 200, 200}},
		{"pure resize", Rect{0, 0, 200, 200}, Rect{0, 0, 250, 120}},
		{"left edge resize", Rect{100, 0, 200, 200}, Rect{80, 0, 220, 200}},
		{"negative origin", Rect{-1920, -40, 800, 600}, Rect{5, 7, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Shift(tt.a.Delta(tt.b)); got != tt.b {
				t.Errorf("A.Shift(A.Delta(B)) = %v, want %v", got, tt.b)
			}
		})
	}
}

func TestRectMoved(t *testing.T) {
	base := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"same", base, false},
		{"x differs", Rect{1, 0, 100, 100}, true},
		{"y differs", Rect{0, 1, 100, 100}, true},
		{"width differs", Rect{0, 0, 101, 100}, true},
		{"height differs", Rect{0, 0, 100, 99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Moved(tt.other); got != tt.want {
				t.Errorf("Moved(%v) = %v, want %v", tt.other, got, tt.want)
			}
		})
	}
}

func TestRectNegate(t *testing.T) {
	d := Rect{X: 3, Y: -4, Width: 5, Height: -6}
	r := Rect{X: 10, Y: 10, Width: 100, Height: 100}
	if got := r.Shift(d).Shift(d.Negate()); got != r {
		t.Errorf("shift then negated shift = %v, want %v", got, r)
	}
}

func TestRectIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	got, ok := a.Intersect(Rect{X: 50, Y: 50, Width: 100, Height: 100})
	if !ok || got != (Rect{X: 50, Y: 50, Width: 50, Height: 50}) {
		t.Errorf("Intersect = %v, %v", got, ok)
	}

	// Touching edges share no area.
	if _, ok := a.Intersect(Rect{X: 100, Y: 0, Width: 50, Height: 50}); ok {
		t.Error("touching rects should not intersect")
	}
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	if !a.OverlapsVertically(Rect{X: 100, Y: 50, Width: 10, Height: 100}) {
		t.Error("expected vertical overlap")
	}
	if a.OverlapsVertically(Rect{X: 100, Y: 100, Width: 10, Height: 100}) {
		t.Error("corner contact is not an overlap")
	}
	if !a.OverlapsHorizontally(Rect{X: 99, Y: 100, Width: 10, Height: 10}) {
		t.Error("expected horizontal overlap")
	}
}

func TestRectMoveEdge(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 200, Height: 200}

	tests := []struct {
		side   Direction
		amount int
		want   Rect
	}{
		{DirLeft, 10, Rect{110, 100, 190, 200}},
		{DirRight, 10, Rect{100, 100, 210, 200}},
		{DirUp, -10, Rect{100, 90, 200, 210}},
		{DirDown, -10, Rect{100, 100, 200, 190}},
	}

	for _, tt := range tests {
		t.Run(tt.side.String(), func(t *testing.T) {
			got := r.MoveEdge(tt.side, tt.amount)
			if got != tt.want {
				t.Errorf("MoveEdge(%v, %d) = %v, want %v", tt.side, tt.amount, got, tt.want)
			}
			if got.Edge(tt.side.Opposite()) != r.Edge(tt.side.Opposite()) {
				t.Error("opposite edge moved")
			}
		})
	}
}

func TestPartialRectOver(t *testing.T) {
	x, h := 5, 70
	base := Rect{X: 1, Y: 2, Width: 3, Height: 4}

	got := PartialRect{X: &x, Height: &h}.Over(base)
	want := Rect{X: 5, Y: 2, Width: 3, Height: 70}
	if got != want {
		t.Errorf("Over = %v, want %v", got, want)
	}
	if !(PartialRect{}).IsEmpty() {
		t.Error("zero PartialRect should be empty")
	}
}

func TestConstraintsSizeRange(t *testing.T) {
	tests := []struct {
		name       string
		c          Constraints
		horizontal bool
		lo, hi     int
	}{
		{"unconstrained", Constraints{}, true, 1, -1},
		{"min and max width", Constraints{MinWidth: 100, MaxWidth: 400}, true, 100, 400},
		{"height only", Constraints{MinWidth: 100, MaxHeight: 300}, false, 1, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.c.SizeRange(tt.horizontal)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("SizeRange = (%d, %d), want (%d, %d)", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestConstraintsMerge(t *testing.T) {
	base := Constraints{MinWidth: 100, MaxWidth: 800}
	got := base.Merge(Constraints{MaxWidth: 500, AspectRatio: 1.5})
	want := Constraints{MinWidth: 100, MaxWidth: 500, AspectRatio: 1.5}
	if got != want {
		t.Errorf("Merge = %+v, want %+v", got, want)
	}
}

func TestClassifyDelta(t *testing.T) {
	tests := []struct {
		name  string
		delta Rect
		want  ChangeType
	}{
		{"move", Rect{X: 10, Y: 10}, ChangePosition},
		{"right edge resize", Rect{Width: 50}, ChangeSize},
		{"left edge resize", Rect{X: -10, Width: 10}, ChangeSize},
		{"top edge resize", Rect{Y: 5, Height: -5}, ChangeSize},
		{"move and resize", Rect{X: 10, Width: 5}, ChangePositionAndSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDelta(tt.delta); got != tt.want {
				t.Errorf("ClassifyDelta(%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirLeft, "left"},
		{DirRight, "right"},
		{DirUp, "up"},
		{DirDown, "down"},
		{Direction(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.dir.String(); got != tt.want {
				t.Errorf("Direction.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range []Direction{DirLeft, DirRight, DirUp, DirDown} {
		if d.Opposite().Opposite() != d {
			t.Errorf("%v opposite twice = %v", d, d.Opposite().Opposite())
		}
		if d.Opposite().Horizontal() != d.Horizontal() {
			t.Errorf("%v and its opposite lie on different axes", d)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		wantDir Direction
		wantOK  bool
	}{
		{"left", DirLeft, true},
		{"right", DirRight, true},
		{"up", DirUp, true},
		{"down", DirDown, true},
		{"invalid", 0, false},
		{"LEFT", 0, false}, // case sensitive
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotDir, gotOK := ParseDirection(tt.input)
			if gotDir != tt.wantDir || gotOK != tt.wantOK {
				t.Errorf("ParseDirection(%q) = (%v, %v), want (%v, %v)",
					tt.input, gotDir, gotOK, tt.wantDir, tt.wantOK)
			}
		})
	}
}

func TestIdentityString(t *testing.T) {
	id := Identity{UUID: "app", Name: "main"}
	if id.String() != "app/main" {
		t.Errorf("String() = %q", id.String())
	}
}
