package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/spx/internal/shared"
)

// Hex is a "#rrggbb" colour, or an ANSI colour index for built-in palettes.
type Hex string

func (h *Hex) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	if !isHexColor(s) {
		return fmt.Errorf("%w: invalid color %q", shared.ErrInvalidConfig, string(b))
	}
	*h = Hex(s)
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// Palette is the 16 colour terminal palette plus optional background and foreground.
// Unset entries in a user palette fall back to the terminal's ANSI colours.
type Palette struct {
	Background Hex `toml:"background"`
	Foreground Hex `toml:"foreground"`

	Black   Hex `toml:"black"`
	Red     Hex `toml:"red"`
	Green   Hex `toml:"green"`
	Yellow  Hex `toml:"yellow"`
	Blue    Hex `toml:"blue"`
	Magenta Hex `toml:"magenta"`
	Cyan    Hex `toml:"cyan"`
	White   Hex `toml:"white"`

	BrightBlack   Hex `toml:"bright_black"`
	BrightRed     Hex `toml:"bright_red"`
	BrightGreen   Hex `toml:"bright_green"`
	BrightYellow  Hex `toml:"bright_yellow"`
	BrightBlue    Hex `toml:"bright_blue"`
	BrightMagenta Hex `toml:"bright_magenta"`
	BrightCyan    Hex `toml:"bright_cyan"`
	BrightWhite   Hex `toml:"bright_white"`
}

// DefaultPalette uses the terminal's own ANSI colours.
func DefaultPalette() Palette {
	return Palette{
		Black: "0", Red: "9", Green: "10", Yellow: "11",
		Blue: "12", Magenta: "13", Cyan: "14", White: "7",
		BrightBlack: "8", BrightRed: "1", BrightGreen: "2", BrightYellow: "3",
		BrightBlue: "4", BrightMagenta: "5", BrightCyan: "6", BrightWhite: "15",
	}
}

func draculaPalette() Palette {
	return Palette{
		Background: "#1e1f29", Foreground: "#f8f8f2",
		Black: "#000000", Red: "#ff5555", Green: "#50fa7b", Yellow: "#f1fa8c",
		Blue: "#bd93f9", Magenta: "#ff79c6", Cyan: "#8be9fd", White: "#bbbbbb",
		BrightBlack: "#555555", BrightRed: "#ff5555", BrightGreen: "#50fa7b", BrightYellow: "#f1fa8c",
		BrightBlue: "#bd93f9", BrightMagenta: "#ff79c6", BrightCyan: "#8be9fd", BrightWhite: "#ffffff",
	}
}

func (p *Palette) fillDefaults() {
	d := DefaultPalette()
	for _, pair := range []struct{ dst, src *Hex }{
		{&p.Black, &d.Black}, {&p.Red, &d.Red}, {&p.Green, &d.Green}, {&p.Yellow, &d.Yellow},
		{&p.Blue, &d.Blue}, {&p.Magenta, &d.Magenta}, {&p.Cyan, &d.Cyan}, {&p.White, &d.White},
		{&p.BrightBlack, &d.BrightBlack}, {&p.BrightRed, &d.BrightRed},
		{&p.BrightGreen, &d.BrightGreen}, {&p.BrightYellow, &d.BrightYellow},
		{&p.BrightBlue, &d.BrightBlue}, {&p.BrightMagenta, &d.BrightMagenta},
		{&p.BrightCyan, &d.BrightCyan}, {&p.BrightWhite, &d.BrightWhite},
	} {
		if *pair.dst == "" {
			*pair.dst = *pair.src
		}
	}
}

// Color is a palette reference ("Magenta", "BrightBlack") or a literal "#rrggbb".
type Color string

const (
	ColorBlack         Color = "Black"
	ColorRed           Color = "Red"
	ColorGreen         Color = "Green"
	ColorYellow        Color = "Yellow"
	ColorBlue          Color = "Blue"
	ColorMagenta       Color = "Magenta"
	ColorCyan          Color = "Cyan"
	ColorWhite         Color = "White"
	ColorBrightBlack   Color = "BrightBlack"
	ColorBrightRed     Color = "BrightRed"
	ColorBrightGreen   Color = "BrightGreen"
	ColorBrightYellow  Color = "BrightYellow"
	ColorBrightBlue    Color = "BrightBlue"
	ColorBrightMagenta Color = "BrightMagenta"
	ColorBrightCyan    Color = "BrightCyan"
	ColorBrightWhite   Color = "BrightWhite"
)

func (p *Palette) lookup(c Color) (Hex, bool) {
	switch c {
	case ColorBlack:
		return p.Black, true
	case ColorRed:
		return p.Red, true
	case ColorGreen:
		return p.Green, true
	case ColorYellow:
		return p.Yellow, true
	case ColorBlue:
		return p.Blue, true
	case ColorMagenta:
		return p.Magenta, true
	case ColorCyan:
		return p.Cyan, true
	case ColorWhite:
		return p.White, true
	case ColorBrightBlack:
		return p.BrightBlack, true
	case ColorBrightRed:
		return p.BrightRed, true
	case ColorBrightGreen:
		return p.BrightGreen, true
	case ColorBrightYellow:
		return p.BrightYellow, true
	case ColorBrightBlue:
		return p.BrightBlue, true
	case ColorBrightMagenta:
		return p.BrightMagenta, true
	case ColorBrightCyan:
		return p.BrightCyan, true
	case ColorBrightWhite:
		return p.BrightWhite, true
	}
	return "", false
}

// Resolve maps a colour to a lipgloss colour.
func (p *Palette) Resolve(c Color) lipgloss.Color {
	if h, ok := p.lookup(c); ok {
		return lipgloss.Color(h)
	}
	return lipgloss.Color(c)
}

func (c *Color) UnmarshalText(b []byte) error {
	s := string(b)
	if isHexColor(strings.ToLower(s)) {
		*c = Color(strings.ToLower(s))
		return nil
	}
	var p Palette
	if _, ok := p.lookup(Color(s)); !ok {
		return fmt.Errorf("%w: unknown color %q", shared.ErrInvalidConfig, s)
	}
	*c = Color(s)
	return nil
}

// Modifier is a text attribute.
type Modifier string

const (
	Bold       Modifier = "Bold"
	Italic     Modifier = "Italic"
	Reversed   Modifier = "Reversed"
	Underlined Modifier = "Underlined"
)

func (m *Modifier) UnmarshalText(b []byte) error {
	switch v := Modifier(b); v {
	case Bold, Italic, Reversed, Underlined:
		*m = v
		return nil
	}
	return fmt.Errorf("%w: unknown modifier %q", shared.ErrInvalidConfig, string(b))
}

// Style is a user-configurable text style.
type Style struct {
	Fg        Color      `toml:"fg"`
	Bg        Color      `toml:"bg"`
	Modifiers []Modifier `toml:"modifiers"`
}

// Render converts the style to lipgloss using palette p.
func (s Style) Render(p *Palette) lipgloss.Style {
	style := lipgloss.NewStyle()
	if s.Fg != "" {
		style = style.Foreground(p.Resolve(s.Fg))
	}
	if s.Bg != "" {
		style = style.Background(p.Resolve(s.Bg))
	}
	for _, m := range s.Modifiers {
		switch m {
		case Bold:
			style = style.Bold(true)
		case Italic:
			style = style.Italic(true)
		case Reversed:
			style = style.Reverse(true)
		case Underlined:
			style = style.Underline(true)
		}
	}
	return style
}
