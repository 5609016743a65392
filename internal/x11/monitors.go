package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: primary != 0 && crtcInfo.Outputs[0] == primary,
		})
	}

	return monitors, nil
}

// PointerPosition returns the pointer position in root coordinates.
func (c *Connection) PointerPosition() (x, y int, err error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}

// PickMonitor chooses the monitor the minimap should size itself against.
// An output name match wins, then the monitor under the pointer, then the
// RandR primary, then the first monitor. It returns nil for an empty list.
func PickMonitor(monitors []Monitor, name string, pointerX, pointerY int, havePointer bool) *Monitor {
	if len(monitors) == 0 {
		return nil
	}
	if name != "" {
		for i := range monitors {
			if monitors[i].Name == name {
				return &monitors[i]
			}
		}
	}
	if havePointer {
		for i := range monitors {
			mon := &monitors[i]
			if pointerX >= mon.X && pointerX < mon.X+mon.Width &&
				pointerY >= mon.Y && pointerY < mon.Y+mon.Height {
				return mon
			}
		}
	}
	for i := range monitors {
		if monitors[i].Primary {
			return &monitors[i]
		}
	}
	return &monitors[0]
}

// ActiveMonitor returns the monitor named name when present, otherwise the
// best guess from pointer position and primary output.
func (c *Connection) ActiveMonitor(name string) (*Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return nil, err
	}
	x, y, perr := c.PointerPosition()
	mon := PickMonitor(monitors, name, x, y, perr == nil)
	if mon == nil {
		return nil, fmt.Errorf("no monitors found")
	}
	return mon, nil
}
