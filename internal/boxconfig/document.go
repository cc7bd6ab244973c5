// Package boxconfig is the configuration-file leaf dependency of spec.md
// §6: it parses and serializes the `app: { layouts, config, hot_keys,
// on_keypress, libs }` YAML document into boxstate.AppState and back.
// Its Load/Save/atomic-write shape is generalized from a flat settings
// file to the full document tree LiveYamlSync mutates in place.
package boxconfig

import (
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	"boxmux/internal/boxstate"
)

// Document is the root YAML shape (spec.md §6).
type Document struct {
	App App `yaml:"app"`
}

// App is the `app:` document body.
type App struct {
	Layouts    []Layout            `yaml:"layouts"`
	Config     AppConfig           `yaml:"config,omitempty"`
	HotKeys    map[string]string   `yaml:"hot_keys,omitempty"`
	OnKeypress map[string][]string `yaml:"on_keypress,omitempty"`
	Libs       []string            `yaml:"libs,omitempty"`
}

// AppConfig mirrors boxstate.AppConfig's YAML-facing fields.
type AppConfig struct {
	FrameDelayMS       int    `yaml:"frame_delay_ms,omitempty"`
	LogLevel           string `yaml:"log_level,omitempty"`
	MaxLinesPerSecond  int    `yaml:"max_lines_per_second,omitempty"`
	MaxQueueSize       int    `yaml:"max_queue_size,omitempty"`
	RenderDebounceMS   int    `yaml:"render_debounce_ms,omitempty"`
	SocketPath         string `yaml:"socket_path,omitempty"`
	LiveSyncEnabled    *bool  `yaml:"live_sync_enabled,omitempty"`
	MaxConcurrentTasks int    `yaml:"max_concurrent_tasks,omitempty"`
	TaskWorkerCount    int    `yaml:"task_worker_count,omitempty"`
}

// Position is the raw x1/y1/x2/y2 edge-coordinate shape.
type Position struct {
	X1 string `yaml:"x1"`
	Y1 string `yaml:"y1"`
	X2 string `yaml:"x2"`
	Y2 string `yaml:"y2"`
}

// Colors is the per-state color/attribute shape shared by normal,
// selected, and error families.
type Colors struct {
	FG     string `yaml:"fg,omitempty"`
	BG     string `yaml:"bg,omitempty"`
	Title  string `yaml:"title_color,omitempty"`
	Border string `yaml:"border_color,omitempty"`
}

// Choice mirrors boxstate.Choice's YAML-facing fields.
type Choice struct {
	ID            string   `yaml:"id"`
	Content       string   `yaml:"content,omitempty"`
	Script        yaml.Node `yaml:"script,omitempty"`
	ExecutionMode string   `yaml:"execution_mode,omitempty"`
	RedirectTo    string   `yaml:"redirect_output,omitempty"`
	AppendOutput  bool     `yaml:"append_output,omitempty"`
}

// MuxBox is the YAML shape of one muxbox, per spec.md §6.
type MuxBox struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title,omitempty"`
	Position Position `yaml:"position"`
	Anchor   string   `yaml:"anchor,omitempty"`

	MinWidth  *int `yaml:"min_width,omitempty"`
	MinHeight *int `yaml:"min_height,omitempty"`
	MaxWidth  *int `yaml:"max_width,omitempty"`
	MaxHeight *int `yaml:"max_height,omitempty"`

	OverflowBehavior string  `yaml:"overflow_behavior,omitempty"`
	HorizontalScroll float64 `yaml:"horizontal_scroll,omitempty"`
	VerticalScroll   float64 `yaml:"vertical_scroll,omitempty"`
	RefreshInterval  string  `yaml:"refresh_interval,omitempty"`
	TabOrder         string  `yaml:"tab_order,omitempty"`
	NextFocusID      string  `yaml:"next_focus_id,omitempty"`

	Fill         string `yaml:"fill_char,omitempty"`
	SelectedFill string `yaml:"selected_fill_char,omitempty"`
	Border       *bool  `yaml:"border,omitempty"`

	Normal   Colors `yaml:"colors,omitempty"`
	Selected Colors `yaml:"selected_colors,omitempty"`
	Error    Colors `yaml:"error_colors,omitempty"`

	Children []MuxBox            `yaml:"children,omitempty"`
	Choices  []Choice            `yaml:"choices,omitempty"`
	OnKeypress map[string][]string `yaml:"on_keypress,omitempty"`

	RedirectOutput string    `yaml:"redirect_output,omitempty"`
	AppendOutput   bool      `yaml:"append_output,omitempty"`
	Script         yaml.Node `yaml:"script,omitempty"`
	ExecutionMode  string    `yaml:"execution_mode,omitempty"`
	Content        string    `yaml:"content,omitempty"`
	SaveInFile     string    `yaml:"save_in_file,omitempty"`
	Selected_      bool      `yaml:"selected,omitempty"`
}

// Layout is the YAML shape of one layout, per spec.md §6.
type Layout struct {
	ID              string              `yaml:"id"`
	Title           string              `yaml:"title,omitempty"`
	Root            bool                `yaml:"root,omitempty"`
	Active          bool                `yaml:"active,omitempty"`
	RefreshInterval string              `yaml:"refresh_interval,omitempty"`
	Children        []MuxBox            `yaml:"children,omitempty"`
	HotKeys         map[string]string   `yaml:"hot_keys,omitempty"`
	KeyBindings     map[string][]string `yaml:"key_bindings,omitempty"`

	Fill   string `yaml:"fill_char,omitempty"`
	Border *bool  `yaml:"border,omitempty"`

	Normal   Colors `yaml:"colors,omitempty"`
	Selected Colors `yaml:"selected_colors,omitempty"`
	Error    Colors `yaml:"error_colors,omitempty"`
}

// ToAppState converts a parsed Document into the runtime model. Structural
// decode errors (malformed script shapes, unparseable durations) reject
// immediately; everything boxstate.Validate can check instead (duplicate
// identifiers, invalid cross-references, multiple root layouts, too many
// selected muxboxes) is collected into one aggregate *boxstate.ValidationError
// rather than failing on the first problem found, per spec.md §7 kind 1
// and SPEC_FULL.md's ambient-stack error-handling section.
func (d *Document) ToAppState() (*boxstate.AppState, error) {
	app := &boxstate.AppState{
		HotKeys:     d.App.HotKeys,
		KeyBindings: d.App.OnKeypress,
		Libs:        d.App.Libs,
		Config:      toAppConfig(d.App.Config),
	}

	for _, rawLayout := range d.App.Layouts {
		layout, err := rawLayout.toBoxstate()
		if err != nil {
			return nil, err
		}
		app.Layouts = append(app.Layouts, layout)
	}
	if err := boxstate.Validate(app); err != nil {
		return nil, err
	}
	return app, nil
}

func toAppConfig(c AppConfig) boxstate.AppConfig {
	liveSync := true
	if c.LiveSyncEnabled != nil {
		liveSync = *c.LiveSyncEnabled
	}
	return boxstate.AppConfig{
		FrameDelay:         durationOrDefault(c.FrameDelayMS, 33*time.Millisecond),
		LogLevel:           c.LogLevel,
		MaxLinesPerSecond:  intOrDefault(c.MaxLinesPerSecond, 100),
		MaxQueueSize:       intOrDefault(c.MaxQueueSize, 1000),
		RenderDebounce:     durationOrDefault(c.RenderDebounceMS, 16*time.Millisecond),
		SocketPath:         c.SocketPath,
		LiveSyncEnabled:    liveSync,
		MaxConcurrentTasks: intOrDefault(c.MaxConcurrentTasks, 4),
		TaskWorkerCount:    intOrDefault(c.TaskWorkerCount, 2),
	}
}

func durationOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (l Layout) toBoxstate() (*boxstate.Layout, error) {
	out := &boxstate.Layout{
		ID:          l.ID,
		Title:       l.Title,
		Root:        l.Root,
		Active:      l.Active,
		Visual:      visualAttributes(l.Fill, "", l.Border, l.Normal, l.Selected, l.Error),
		HotKeys:     l.HotKeys,
		KeyBindings: l.KeyBindings,
	}
	if l.RefreshInterval != "" {
		d, err := time.ParseDuration(l.RefreshInterval)
		if err != nil {
			return nil, fmt.Errorf("boxconfig: layout %q refresh_interval: %w", l.ID, err)
		}
		out.RefreshInterval = d
		out.HasRefresh = true
	}
	for _, rawChild := range l.Children {
		child, err := rawChild.toBoxstate()
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

func (m MuxBox) toBoxstate() (*boxstate.MuxBox, error) {
	out := &boxstate.MuxBox{
		ID:    m.ID,
		Title: m.Title,
		Position: boxstate.Position{
			X1: m.Position.X1, Y1: m.Position.Y1, X2: m.Position.X2, Y2: m.Position.Y2,
		},
		Anchor:         boxstate.Anchor(m.Anchor),
		Visual:         visualAttributes(m.Fill, m.SelectedFill, m.Border, m.Normal, m.Selected, m.Error),
		TabOrder:       m.TabOrder,
		NextFocusID:    m.NextFocusID,
		ExecutionMode:  execModeOrDefault(m.ExecutionMode),
		RedirectTo:     m.RedirectOutput,
		AppendOutput:   m.AppendOutput,
		OnKeypress:     boxstate.OnKeypress(m.OnKeypress),
		SaveToFile:     m.SaveInFile,
		StaticContent:  m.Content,
		HScroll:        m.HorizontalScroll,
		VScroll:        m.VerticalScroll,
		SizeConstraints: sizeConstraints(m),
		Selected:       m.Selected_,
	}
	if overflow := boxstate.OverflowBehavior(m.OverflowBehavior); overflow != "" {
		out.Visual.OverflowBehavior = &overflow
	}
	if script, err := decodeScript(m.Script); err != nil {
		return nil, fmt.Errorf("boxconfig: muxbox %q script: %w", m.ID, err)
	} else {
		out.Script = script
	}
	if m.RefreshInterval != "" {
		d, err := time.ParseDuration(m.RefreshInterval)
		if err != nil {
			return nil, fmt.Errorf("boxconfig: muxbox %q refresh_interval: %w", m.ID, err)
		}
		out.RefreshInterval = d
		out.HasRefresh = true
	}
	for _, rawChild := range m.Children {
		child, err := rawChild.toBoxstate()
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	for _, rawChoice := range m.Choices {
		script, err := decodeScript(rawChoice.Script)
		if err != nil {
			return nil, fmt.Errorf("boxconfig: choice %q script: %w", rawChoice.ID, err)
		}
		out.Choices = append(out.Choices, boxstate.Choice{
			ID:            rawChoice.ID,
			Content:       rawChoice.Content,
			Script:        script,
			ExecutionMode: execModeOrDefault(rawChoice.ExecutionMode),
			RedirectTo:    rawChoice.RedirectTo,
			AppendOutput:  rawChoice.AppendOutput,
		})
	}
	return out, nil
}

func sizeConstraints(m MuxBox) boxstate.SizeConstraints {
	c := boxstate.SizeConstraints{}
	if m.MinWidth != nil {
		c.MinWidth, c.HasMinW = *m.MinWidth, true
	}
	if m.MinHeight != nil {
		c.MinHeight, c.HasMinH = *m.MinHeight, true
	}
	if m.MaxWidth != nil {
		c.MaxWidth, c.HasMaxW = *m.MaxWidth, true
	}
	if m.MaxHeight != nil {
		c.MaxHeight, c.HasMaxH = *m.MaxHeight, true
	}
	return c
}

func execModeOrDefault(mode string) boxstate.ExecutionMode {
	if mode == "" {
		return boxstate.ModeImmediate
	}
	return boxstate.ExecutionMode(mode)
}

func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func visualAttributes(fill, selectedFill string, border *bool, normal, selected, errorColors Colors) boxstate.VisualAttributes {
	return boxstate.VisualAttributes{
		Normal:       colorSet(normal),
		Selected:     colorSet(selected),
		Error:        colorSet(errorColors),
		Fill:         ptrString(fill),
		SelectedFill: ptrString(selectedFill),
		Border:       border,
	}
}

func colorSet(c Colors) boxstate.ColorSet {
	return boxstate.ColorSet{
		FG:     ptrString(c.FG),
		BG:     ptrString(c.BG),
		Title:  ptrString(c.Title),
		Border: ptrString(c.Border),
	}
}

// decodeScript implements spec.md §6's three accepted `script` shapes: a
// scalar string, a list of strings, or a mixed list whose structured
// entries are serialized back to text. The mixed-list case is the only
// one that needs the raw yaml.Node (boxstate.NormalizeStringScript and
// NormalizeStringListScript cover the first two).
func decodeScript(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return boxstate.NormalizeStringScript(s), nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode {
				out = append(out, item.Value)
				continue
			}
			block, err := yaml.Marshal(item)
			if err != nil {
				return nil, err
			}
			out = append(out, string(block))
		}
		return boxstate.NormalizeStringListScript(out), nil
	default:
		return nil, fmt.Errorf("unsupported script shape: node kind %d", node.Kind)
	}
}
