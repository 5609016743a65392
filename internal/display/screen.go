package display

import (
	"context"
	"io"
	"log/slog"

	"github.com/1broseidon/nirimap/internal/niri"
	"github.com/1broseidon/nirimap/internal/x11"
)

// Fallback geometry used when no provider answers.
const (
	FallbackWidth  = 1920
	FallbackHeight = 1080
)

// Source names where a Screen came from.
type Source string

const (
	SourceNiri     Source = "niri"
	SourceX11      Source = "x11"
	SourceFallback Source = "fallback"
)

// Screen is the geometry the minimap sizes itself against. Width and Height
// are logical pixels.
type Screen struct {
	Output string `json:"output,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Source Source `json:"source"`
}

// OutputQuerier reports niri's focused output.
type OutputQuerier interface {
	FocusedOutput(ctx context.Context) (*niri.Output, error)
}

// MonitorQuerier reports an X11 monitor, preferring one with the given name.
type MonitorQuerier interface {
	ActiveMonitor(name string) (*x11.Monitor, error)
}

// Detector resolves the screen through a chain of providers. Either
// provider may be nil.
type Detector struct {
	Niri   OutputQuerier
	X11    MonitorQuerier
	Logger *slog.Logger
}

// Detect asks niri first, then X11, then falls back to FallbackWidth x
// FallbackHeight. It never fails.
func (d *Detector) Detect(ctx context.Context) Screen {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var outputName string
	if d.Niri != nil {
		out, err := d.Niri.FocusedOutput(ctx)
		switch {
		case err != nil:
			logger.Debug("niri focused output unavailable", "error", err)
		case out == nil:
			logger.Debug("niri reports no focused output")
		default:
			outputName = out.Name
			if out.Logical != nil && out.Logical.Width > 0 {
				return Screen{
					Output: out.Name,
					Width:  int(out.Logical.Width),
					Height: int(out.Logical.Height),
					Source: SourceNiri,
				}
			}
			logger.Debug("niri output has no logical size", "output", out.Name)
		}
	}

	if d.X11 != nil {
		mon, err := d.X11.ActiveMonitor(outputName)
		if err == nil && mon != nil && mon.Width > 0 {
			name := outputName
			if name == "" {
				name = mon.Name
			}
			return Screen{Output: name, Width: mon.Width, Height: mon.Height, Source: SourceX11}
		}
		if err != nil {
			logger.Debug("x11 monitor query failed", "error", err)
		}
	}

	logger.Warn("using fallback screen size", "width", FallbackWidth, "height", FallbackHeight)
	return Screen{Output: outputName, Width: FallbackWidth, Height: FallbackHeight, Source: SourceFallback}
}

// ConnectX11 opens an X11 monitor source when a display is available. The
// returned close function is never nil.
func ConnectX11() (MonitorQuerier, func()) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, func() {}
	}
	return conn, conn.Close
}
