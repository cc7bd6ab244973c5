package socket

import (
	"fmt"

	"boxmux/internal/boxstate"
	"boxmux/internal/bus"
)

// Dispatcher is the CommandExecutor registered with the Loop; it
// validates each of the fixed commands of spec.md §4.8 and forwards one
// bus message per accepted request. publish is usually bus.Base.SendMessage.
type Dispatcher struct {
	publish func(bus.Message)
}

// NewDispatcher builds a Dispatcher that calls publish for every
// successfully validated command.
func NewDispatcher(publish func(bus.Message)) *Dispatcher {
	return &Dispatcher{publish: publish}
}

// Handle implements Handler.
func (d *Dispatcher) Handle(req Request) Response {
	switch req.Command {
	case "replace-muxbox-content":
		return d.replaceMuxboxContent(req)
	case "replace-muxbox-script":
		return d.replaceMuxboxScript(req)
	case "stop-muxbox-refresh":
		return d.stopMuxboxRefresh(req)
	case "start-muxbox-refresh":
		return d.startMuxboxRefresh(req)
	case "switch-active-layout":
		return d.switchActiveLayout(req)
	case "replace-muxbox":
		return d.replaceMuxbox(req)
	case "add-muxbox":
		return d.addMuxbox(req)
	case "remove-muxbox":
		return d.removeMuxbox(req)
	default:
		return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func requiredString(req Request, key string) (string, error) {
	v, ok := req.Args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

func (d *Dispatcher) replaceMuxboxContent(req Request) Response {
	id, err := requiredString(req, "muxbox_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	content, _ := req.Args["content"].(string)
	success := true
	if v, ok := req.Args["success"].(bool); ok {
		success = v
	}
	d.publish(bus.MuxBoxOutputUpdate{ID: id, Success: success, Content: content})
	return Response{OK: true}
}

func (d *Dispatcher) replaceMuxboxScript(req Request) Response {
	id, err := requiredString(req, "muxbox_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	raw, ok := req.Args["script"].([]any)
	if !ok {
		return Response{OK: false, Error: `missing required argument "script"`}
	}
	script := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return Response{OK: false, Error: "script entries must be strings"}
		}
		script = append(script, s)
	}
	d.publish(bus.MuxBoxScriptUpdate{ID: id, Script: boxstate.NormalizeStringListScript(script)})
	return Response{OK: true}
}

func (d *Dispatcher) stopMuxboxRefresh(req Request) Response {
	id, err := requiredString(req, "muxbox_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	d.publish(bus.StopMuxBoxRefresh{ID: id})
	return Response{OK: true}
}

func (d *Dispatcher) startMuxboxRefresh(req Request) Response {
	id, err := requiredString(req, "muxbox_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	d.publish(bus.StartMuxBoxRefresh{ID: id})
	return Response{OK: true}
}

func (d *Dispatcher) switchActiveLayout(req Request) Response {
	id, err := requiredString(req, "layout_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	d.publish(bus.SwitchActiveLayout{ID: id})
	return Response{OK: true}
}

func (d *Dispatcher) replaceMuxbox(req Request) Response {
	id, err := requiredString(req, "muxbox_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	box, err := decodeMuxBox(req.Args)
	if err != nil {
		return Response{OK: false, Error: fmt.Sprintf("malformed muxbox definition: %v", err)}
	}
	d.publish(bus.ReplaceMuxBox{ID: id, New: box})
	return Response{OK: true}
}

func (d *Dispatcher) addMuxbox(req Request) Response {
	layoutID, err := requiredString(req, "layout_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	box, err := decodeMuxBox(req.Args)
	if err != nil {
		return Response{OK: false, Error: fmt.Sprintf("malformed muxbox definition: %v", err)}
	}
	d.publish(bus.AddMuxBox{LayoutID: layoutID, Box: box})
	return Response{OK: true}
}

func (d *Dispatcher) removeMuxbox(req Request) Response {
	id, err := requiredString(req, "muxbox_id")
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	d.publish(bus.RemoveMuxBox{ID: id})
	return Response{OK: true}
}

// decodeMuxBox builds a minimal boxstate.MuxBox from the "muxbox" nested
// arg, enough for replace-muxbox/add-muxbox's id/title/position. Fuller
// attributes (visual, choices, keypress bindings) go through the
// configuration file and LiveYamlSync rather than the socket, which only
// needs to support the operations spec.md §4.8 actually names.
func decodeMuxBox(args map[string]any) (*boxstate.MuxBox, error) {
	raw, ok := args["muxbox"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf(`missing required argument "muxbox"`)
	}
	id, ok := raw["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("muxbox.id must be a non-empty string")
	}
	box := &boxstate.MuxBox{ID: id}
	if title, ok := raw["title"].(string); ok {
		box.Title = title
	}
	if pos, ok := raw["position"].(map[string]any); ok {
		box.Position = boxstate.Position{
			X1: fmt.Sprint(pos["x1"]),
			Y1: fmt.Sprint(pos["y1"]),
			X2: fmt.Sprint(pos["x2"]),
			Y2: fmt.Sprint(pos["y2"]),
		}
	}
	return box, nil
}
