package niri

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event is one line of the niri event stream.
//
// niri encodes events as externally tagged objects, e.g.
// {"WindowClosed":{"id":7}}. Kind always carries the tag; at most one of the
// payload pointers is set, and none is set for event kinds this package does
// not model.
type Event struct {
	Kind string

	WindowOpenedOrChanged *WindowOpenedOrChanged
	WindowClosed          *WindowClosed
	WindowFocusChanged    *WindowFocusChanged
	WorkspaceActivated    *WorkspaceActivated
	WindowLayoutsChanged  *WindowLayoutsChanged
}

type WindowOpenedOrChanged struct {
	Window Window `json:"window"`
}

type WindowClosed struct {
	ID uint64 `json:"id"`
}

// WindowFocusChanged carries the newly focused window, or nil when nothing is
// focused.
type WindowFocusChanged struct {
	ID *uint64 `json:"id"`
}

type WorkspaceActivated struct {
	ID      uint64 `json:"id"`
	Focused bool   `json:"focused"`
}

type WindowLayoutsChanged struct {
	Changes []LayoutChange `json:"changes"`
}

// LayoutChange is a (window id, layout) pair, encoded as a 2-element array.
type LayoutChange struct {
	ID     uint64
	Layout WindowLayout
}

func (c *LayoutChange) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("layout change: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.ID); err != nil {
		return fmt.Errorf("layout change id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Layout); err != nil {
		return fmt.Errorf("layout change %d: %w", c.ID, err)
	}
	return nil
}

// ParseEvent decodes a single event line.
func ParseEvent(data []byte) (*Event, error) {
	data = bytes.TrimSpace(data)

	// Unit variants are encoded as bare strings.
	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return nil, fmt.Errorf("failed to parse event: %w", err)
		}
		return &Event{Kind: kind}, nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("failed to parse event: expected exactly one tag, got %d", len(tagged))
	}

	ev := &Event{}
	var payload json.RawMessage
	for kind, raw := range tagged {
		ev.Kind = kind
		payload = raw
	}

	var target any
	switch ev.Kind {
	case "WindowOpenedOrChanged":
		ev.WindowOpenedOrChanged = &WindowOpenedOrChanged{}
		target = ev.WindowOpenedOrChanged
	case "WindowClosed":
		ev.WindowClosed = &WindowClosed{}
		target = ev.WindowClosed
	case "WindowFocusChanged":
		ev.WindowFocusChanged = &WindowFocusChanged{}
		target = ev.WindowFocusChanged
	case "WorkspaceActivated":
		ev.WorkspaceActivated = &WorkspaceActivated{}
		target = ev.WorkspaceActivated
	case "WindowLayoutsChanged":
		ev.WindowLayoutsChanged = &WindowLayoutsChanged{}
		target = ev.WindowLayoutsChanged
	default:
		return ev, nil
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("failed to parse %s event: %w", ev.Kind, err)
	}
	return ev, nil
}
