package boxconfig

import (
	"testing"

	"go.yaml.in/yaml/v3"
)

func TestToAppStateBuildsLayoutsAndMuxBoxes(t *testing.T) {
	raw := []byte(`
app:
  layouts:
    - id: main
      root: true
      active: true
      children:
        - id: panel1
          title: Logs
          position: {x1: "0", y1: "0", x2: "50%", y2: "100%"}
          tab_order: "1"
`)
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	app, err := doc.ToAppState()
	if err != nil {
		t.Fatalf("ToAppState: %v", err)
	}
	if len(app.Layouts) != 1 || app.Layouts[0].ID != "main" {
		t.Fatalf("Layouts = %+v, want one layout id=main", app.Layouts)
	}
	if !app.Layouts[0].Root || !app.Layouts[0].Active {
		t.Fatalf("layout main root/active = %v/%v, want true/true", app.Layouts[0].Root, app.Layouts[0].Active)
	}
	box := app.Layouts[0].Children[0]
	if box.ID != "panel1" || box.Position.X2 != "50%" || box.TabOrder != "1" {
		t.Fatalf("muxbox panel1 = %+v, unexpected", box)
	}
}

func TestToAppStateRejectsDuplicateMuxBoxID(t *testing.T) {
	raw := []byte(`
app:
  layouts:
    - id: main
      children:
        - id: dup
          position: {x1: "0", y1: "0", x2: "10", y2: "10"}
        - id: dup
          position: {x1: "0", y1: "0", x2: "10", y2: "10"}
`)
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if _, err := doc.ToAppState(); err == nil {
		t.Fatalf("ToAppState() with duplicate muxbox id succeeded, want error")
	}
}

func TestToAppStateRejectsMultipleRootLayouts(t *testing.T) {
	raw := []byte(`
app:
  layouts:
    - id: a
      root: true
    - id: b
      root: true
`)
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if _, err := doc.ToAppState(); err == nil {
		t.Fatalf("ToAppState() with two root layouts succeeded, want error")
	}
}

func TestDecodeScriptShapes(t *testing.T) {
	var scalar yaml.Node
	if err := yaml.Unmarshal([]byte("\"echo a\\n\\necho b\""), &scalar); err != nil {
		t.Fatalf("yaml.Unmarshal scalar: %v", err)
	}
	lines, err := decodeScript(scalar)
	if err != nil {
		t.Fatalf("decodeScript(scalar): %v", err)
	}
	if len(lines) != 2 || lines[0] != "echo a" || lines[1] != "echo b" {
		t.Fatalf("decodeScript(scalar) = %v, want [echo a, echo b]", lines)
	}

	var list yaml.Node
	if err := yaml.Unmarshal([]byte("[\"echo a\", \"echo b\"]"), &list); err != nil {
		t.Fatalf("yaml.Unmarshal list: %v", err)
	}
	lines, err = decodeScript(list)
	if err != nil {
		t.Fatalf("decodeScript(list): %v", err)
	}
	if len(lines) != 2 || lines[0] != "echo a" || lines[1] != "echo b" {
		t.Fatalf("decodeScript(list) = %v, want unchanged [echo a, echo b]", lines)
	}
}
