package config

import (
	"fmt"
	"strings"
)

// ValidationError ties a configuration problem to its YAML path and, when
// known, the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig overlays the keys present in raw onto DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if d := raw.Display; d != nil {
		if d.Height != nil {
			cfg.Display.Height = *d.Height
		}
		if d.MaxWidthPercent != nil {
			cfg.Display.MaxWidthPercent = *d.MaxWidthPercent
		}
		if d.Anchor != nil {
			anchor := Anchor(strings.ToLower(strings.TrimSpace(string(*d.Anchor))))
			if !anchor.Valid() {
				return nil, &ValidationError{Path: "display.anchor", Err: fmt.Errorf("unknown anchor %q (want one of: %s)", *d.Anchor, anchorList())}
			}
			cfg.Display.Anchor = anchor
		}
		if d.MarginX != nil {
			cfg.Display.MarginX = *d.MarginX
		}
		if d.MarginY != nil {
			cfg.Display.MarginY = *d.MarginY
		}
	}

	if a := raw.Appearance; a != nil {
		if a.Background != nil {
			cfg.Appearance.Background = *a.Background
		}
		if a.WindowColor != nil {
			cfg.Appearance.WindowColor = *a.WindowColor
		}
		if a.FocusedColor != nil {
			cfg.Appearance.FocusedColor = *a.FocusedColor
		}
		if a.BorderColor != nil {
			cfg.Appearance.BorderColor = *a.BorderColor
		}
		if a.BorderWidth != nil {
			cfg.Appearance.BorderWidth = *a.BorderWidth
		}
		if a.BorderRadius != nil {
			cfg.Appearance.BorderRadius = *a.BorderRadius
		}
		if a.Gap != nil {
			cfg.Appearance.Gap = *a.Gap
		}
		if a.BackgroundOpacity != nil {
			cfg.Appearance.BackgroundOpacity = *a.BackgroundOpacity
		}
	}

	if b := raw.Behavior; b != nil {
		if b.AlwaysVisible != nil {
			cfg.Behavior.AlwaysVisible = *b.AlwaysVisible
		}
		if b.HideTimeoutMs != nil {
			cfg.Behavior.HideTimeoutMs = *b.HideTimeoutMs
		}
	}

	if raw.LogLevel != nil {
		level := strings.ToLower(strings.TrimSpace(*raw.LogLevel))
		if level == "warn" {
			level = "warning"
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}
