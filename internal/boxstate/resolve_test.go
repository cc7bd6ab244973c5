package boxstate

import "testing"

func TestResolveCoordinate(t *testing.T) {
	cases := []struct {
		coord  string
		extent int
		want   int
	}{
		{"100%", 50, 49},
		{"0%", 50, 0},
		{"10%", 100, 10},
		{"20%", 50, 10},
		{"90%", 100, 90},
		{"5", 100, 5},
	}
	for _, c := range cases {
		got, err := ResolveCoordinate(c.coord, c.extent)
		if err != nil {
			t.Fatalf("ResolveCoordinate(%q, %d): %v", c.coord, c.extent, err)
		}
		if got != c.want {
			t.Errorf("ResolveCoordinate(%q, %d) = %d, want %d", c.coord, c.extent, got, c.want)
		}
	}
}

func TestResolveRectPercent(t *testing.T) {
	parent := Rect{X1: 0, Y1: 0, X2: 99, Y2: 49} // width 100, height 50
	pos := Position{X1: "10%", Y1: "20%", X2: "90%", Y2: "80%"}
	r, err := ResolveRect(pos, AnchorTopLeft, SizeConstraints{}, parent)
	if err != nil {
		t.Fatal(err)
	}
	want := Rect{X1: 10, Y1: 10, X2: 90, Y2: 40}
	if r != want {
		t.Errorf("ResolveRect = %+v, want %+v", r, want)
	}
}

func TestResolveRectAbsolute(t *testing.T) {
	parent := Rect{X1: 0, Y1: 0, X2: 99, Y2: 49}
	pos := Position{X1: "5", Y1: "10", X2: "95", Y2: "45"}
	r, err := ResolveRect(pos, AnchorTopLeft, SizeConstraints{}, parent)
	if err != nil {
		t.Fatal(err)
	}
	want := Rect{X1: 5, Y1: 10, X2: 95, Y2: 45}
	if r != want {
		t.Errorf("ResolveRect = %+v, want %+v", r, want)
	}
}

func TestResolveBoundsContainedInScreen(t *testing.T) {
	screen := Rect{X1: 0, Y1: 0, X2: 99, Y2: 49}
	layout := &Layout{
		ID: "main",
		Children: []*MuxBox{
			{ID: "a", Position: Position{X1: "0%", Y1: "0%", X2: "50%", Y2: "50%"},
				Children: []*MuxBox{
					{ID: "a1", Position: Position{X1: "0%", Y1: "0%", X2: "100%", Y2: "100%"}},
				},
			},
		},
	}
	table, err := ResolveBounds(layout, screen)
	if err != nil {
		t.Fatal(err)
	}
	for id, rect := range table {
		if !rect.Contains(rect.Intersect(screen)) || !screen.Contains(rect.Intersect(screen)) {
			t.Errorf("muxbox %q rect %+v not contained in screen", id, rect)
		}
	}
}

func TestColorInheritanceChain(t *testing.T) {
	self := VisualAttributes{}
	parentMuxbox := VisualAttributes{Normal: ColorSet{FG: strPtr("blue")}}
	layout := VisualAttributes{Normal: ColorSet{FG: strPtr("red")}}

	family := Family(false, false)
	got := ResolveColor(SlotFG, family, "white", self, parentMuxbox, layout)
	if got != "blue" {
		t.Errorf("expected parent muxbox color to win, got %q", got)
	}

	got = ResolveColor(SlotFG, family, "white", self, VisualAttributes{}, layout)
	if got != "red" {
		t.Errorf("expected layout fallback, got %q", got)
	}

	got = ResolveColor(SlotFG, family, "white", VisualAttributes{}, VisualAttributes{}, VisualAttributes{})
	if got != "white" {
		t.Errorf("expected hard default, got %q", got)
	}
}

func strPtr(s string) *string { return &s }

func TestTabOrderCycle(t *testing.T) {
	layout := &Layout{
		ID: "main",
		Children: []*MuxBox{
			{ID: "A", TabOrder: "1"},
			{ID: "B", TabOrder: "2"},
			{ID: "C", TabOrder: "none"},
		},
	}
	app := &AppState{Layouts: []*Layout{layout}}
	g := Build(app)

	if got := g.Next(layout.ID, "A"); got != "B" {
		t.Errorf("Next(A) = %q, want B", got)
	}
	if got := g.Next(layout.ID, "B"); got != "A" {
		t.Errorf("Next(B) = %q, want A (C skipped)", got)
	}
	if got := g.Previous(layout.ID, "A"); got != "B" {
		t.Errorf("Previous(A) = %q, want B", got)
	}

	for _, id := range []string{"A", "B"} {
		if g.Previous(layout.ID, g.Next(layout.ID, id)) != id {
			t.Errorf("Previous(Next(%s)) != %s", id, id)
		}
		if g.Next(layout.ID, g.Previous(layout.ID, id)) != id {
			t.Errorf("Next(Previous(%s)) != %s", id, id)
		}
	}
}

func TestScrollClamping(t *testing.T) {
	if got := ClampScroll(98.0 + 10); got != 100.0 {
		t.Errorf("clamp up = %v, want 100", got)
	}
	if got := ClampScroll(2.0 - 10); got != 0.0 {
		t.Errorf("clamp down = %v, want 0", got)
	}
}

func TestSelectableRequiresNonEmptyNonNoneTabOrder(t *testing.T) {
	cases := []struct {
		tabOrder string
		want     bool
	}{
		{"", false},
		{"none", false},
		{"1", true},
		{"42", true},
	}
	for _, c := range cases {
		box := &MuxBox{TabOrder: c.tabOrder}
		if box.Selectable() != c.want {
			t.Errorf("Selectable(%q) = %v, want %v", c.tabOrder, box.Selectable(), c.want)
		}
	}
}

func TestValidateDuplicateMuxboxID(t *testing.T) {
	app := &AppState{
		Layouts: []*Layout{
			{ID: "main", Root: true, Children: []*MuxBox{
				{ID: "dup"}, {ID: "dup"},
			}},
		},
	}
	err := Validate(app)
	if err == nil {
		t.Fatal("expected validation error for duplicate id")
	}
}

func TestValidateAtMostOneRootLayout(t *testing.T) {
	app := &AppState{
		Layouts: []*Layout{
			{ID: "a", Root: true},
			{ID: "b", Root: true},
		},
	}
	if err := Validate(app); err == nil {
		t.Fatal("expected validation error for two root layouts")
	}
}

func TestNormalizeScriptShapes(t *testing.T) {
	got := NormalizeStringScript("echo a\n\necho b")
	want := []string{"echo a", "echo b"}
	if !equalSlices(got, want) {
		t.Errorf("NormalizeStringScript = %v, want %v", got, want)
	}

	list := []string{"echo a", "echo b"}
	got2 := NormalizeStringListScript(list)
	if !equalSlices(got2, list) {
		t.Errorf("NormalizeStringListScript changed input: %v", got2)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
