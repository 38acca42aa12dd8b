// Package apptheme turns a stored customization into a Fyne theme.
package apptheme

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/store"
)

// ErrInvalidColor is returned for colours that are not #rgb or #rrggbb.
var ErrInvalidColor = errors.New("invalid colour")

// DefaultText is the text colour saved alongside a background picked on its own.
const DefaultText = "#ffffff"

// ParseHex parses #rgb or #rrggbb. The leading '#' is optional.
func ParseHex(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as #rrggbb, dropping alpha.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// Validate checks both colours of a customization.
func Validate(c store.Customization) error {
	var errs []error
	if _, err := ParseHex(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if _, err := ParseHex(c.Text); err != nil {
		errs = append(errs, fmt.Errorf("text: %w", err))
	}
	return errors.Join(errs...)
}

// Theme overrides the background and foreground colours of a base theme.
type Theme struct {
	base       fyne.Theme
	background color.Color
	foreground color.Color
}

var _ fyne.Theme = (*Theme)(nil)

// New builds a theme from c on top of base. Colours that fail to parse keep the base
// colour and are reported in the returned error; the theme is usable either way.
func New(base fyne.Theme, c store.Customization) (*Theme, error) {
	if base == nil {
		base = theme.DefaultTheme()
	}
	t := &Theme{base: base}

	var errs []error
	if c.Background != "" {
		bg, err := ParseHex(c.Background)
		if err != nil {
			errs = append(errs, fmt.Errorf("background: %w", err))
		} else {
			t.background = bg
		}
	}
	if c.Text != "" {
		fg, err := ParseHex(c.Text)
		if err != nil {
			errs = append(errs, fmt.Errorf("text: %w", err))
		} else {
			t.foreground = fg
		}
	}
	return t, errors.Join(errs...)
}

func (t *Theme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground, theme.ColorNameMenuBackground, theme.ColorNameOverlayBackground:
		if t.background != nil {
			return t.background
		}
	case theme.ColorNameForeground:
		if t.foreground != nil {
			return t.foreground
		}
	}
	return t.base.Color(name, variant)
}

func (t *Theme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *Theme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *Theme) Size(name fyne.ThemeSizeName) float32 {
	return t.base.Size(name)
}

// Applier installs customizations as the application theme.
type Applier struct {
	app fyne.App
	log *zap.Logger
}

// NewApplier returns an Applier for app.
func NewApplier(app fyne.App, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{app: app, log: log}
}

// Apply sets the app theme from c. Unparseable colours are logged and left at their
// defaults.
func (a *Applier) Apply(c store.Customization) {
	t, err := New(theme.DefaultTheme(), c)
	if err != nil {
		a.log.Warn("ignoring invalid customization colour", zap.Error(err))
	}
	a.app.Settings().SetTheme(t)
	a.log.Debug("theme applied",
		zap.String("background", c.Background),
		zap.String("text", c.Text))
}
