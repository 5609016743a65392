package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/nirimap/internal/config"
)

// wizardValues holds form-bound values. Numbers are strings for huh and are
// converted on submit.
type wizardValues struct {
	Anchor        string
	Height        string
	MaxWidth      string
	AlwaysVisible bool
	HideTimeout   string
	FocusedColor  string
	WindowColor   string
}

func newWizardValues(cfg *config.Config) wizardValues {
	return wizardValues{
		Anchor:        string(cfg.Display.Anchor),
		Height:        strconv.Itoa(cfg.Display.Height),
		MaxWidth:      strconv.FormatFloat(cfg.Display.MaxWidthPercent, 'f', -1, 64),
		AlwaysVisible: cfg.Behavior.AlwaysVisible,
		HideTimeout:   strconv.Itoa(cfg.Behavior.HideTimeoutMs),
		FocusedColor:  cfg.Appearance.FocusedColor,
		WindowColor:   cfg.Appearance.WindowColor,
	}
}

// apply copies base, overlays the form values, and validates the result.
func (v wizardValues) apply(base *config.Config) (*config.Config, error) {
	cfg := *base

	height, err := strconv.Atoi(strings.TrimSpace(v.Height))
	if err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	maxWidth, err := strconv.ParseFloat(strings.TrimSpace(v.MaxWidth), 64)
	if err != nil {
		return nil, fmt.Errorf("max width: %w", err)
	}
	timeout, err := strconv.Atoi(strings.TrimSpace(v.HideTimeout))
	if err != nil {
		return nil, fmt.Errorf("hide timeout: %w", err)
	}

	cfg.Display.Anchor = config.Anchor(v.Anchor)
	cfg.Display.Height = height
	cfg.Display.MaxWidthPercent = maxWidth
	cfg.Behavior.AlwaysVisible = v.AlwaysVisible
	cfg.Behavior.HideTimeoutMs = timeout
	cfg.Appearance.FocusedColor = strings.TrimSpace(v.FocusedColor)
	cfg.Appearance.WindowColor = strings.TrimSpace(v.WindowColor)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n <= 0 {
		return fmt.Errorf("must be > 0")
	}
	return nil
}

func validateHeight(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < config.MinHeight {
		return fmt.Errorf("must be >= %d", config.MinHeight)
	}
	return nil
}

func validateFraction(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	if f <= 0 || f > 1 {
		return fmt.Errorf("must be in (0, 1]")
	}
	return nil
}

func validateColor(s string) error {
	_, err := config.ParseColor(s)
	return err
}

// InitWizard asks for the common settings, starting from base, and returns
// the resulting validated config. It needs an interactive terminal.
func InitWizard(base *config.Config) (*config.Config, error) {
	if base == nil {
		base = config.DefaultConfig()
	}
	v := newWizardValues(base)

	anchorOpts := make([]huh.Option[string], 0, len(config.Anchors()))
	for _, a := range config.Anchors() {
		anchorOpts = append(anchorOpts, huh.NewOption(string(a), string(a)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("anchor").
				Title("Anchor").
				Description("Screen position of the minimap").
				Options(anchorOpts...).
				Value(&v.Anchor),

			huh.NewInput().
				Key("height").
				Title("Height").
				Description("Minimap height in pixels; width follows the workspace").
				Validate(validateHeight).
				Value(&v.Height),

			huh.NewInput().
				Key("max_width_percent").
				Title("Max Width").
				Description("Largest width as a fraction of the screen (0-1]").
				Validate(validateFraction).
				Value(&v.MaxWidth),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("always_visible").
				Title("Always visible?").
				Description("No: show on activity and hide after a timeout").
				Value(&v.AlwaysVisible),

			huh.NewInput().
				Key("hide_timeout_ms").
				Title("Hide Timeout (ms)").
				Validate(validatePositiveInt).
				Value(&v.HideTimeout),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("focused_color").
				Title("Focused Window Color").
				Validate(validateColor).
				Value(&v.FocusedColor),

			huh.NewInput().
				Key("window_color").
				Title("Window Color").
				Validate(validateColor).
				Value(&v.WindowColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	if err := form.Run(); err != nil {
		return nil, err
	}
	return v.apply(base)
}
