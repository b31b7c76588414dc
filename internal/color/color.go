package color

import (
	"fmt"
	"strings"

	fcolor "github.com/fatih/color"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
	add     *fcolor.Color
	destroy *fcolor.Color
	bold    *fcolor.Color
	cyan    *fcolor.Color
}

// New creates a new Color instance. Color is only used when requested and
// the output supports it (terminal, NO_COLOR unset).
func New(enabled bool) *Color {
	c := &Color{
		enabled: enabled && !fcolor.NoColor,
		add:     fcolor.New(fcolor.FgGreen),
		destroy: fcolor.New(fcolor.FgRed),
		bold:    fcolor.New(fcolor.Bold),
		cyan:    fcolor.New(fcolor.FgCyan),
	}
	for _, fc := range []*fcolor.Color{c.add, c.destroy, c.bold, c.cyan} {
		if c.enabled {
			fc.EnableColor()
		} else {
			fc.DisableColor()
		}
	}
	return c
}

// Add colors a string to indicate additions (green)
func (c *Color) Add(text string) string {
	return c.add.Sprint(text)
}

// Destroy colors a string to indicate deletions (red)
func (c *Color) Destroy(text string) string {
	return c.destroy.Sprint(text)
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	return c.bold.Sprint(text)
}

// Cyan colors text cyan (for headers and labels)
func (c *Color) Cyan(text string) string {
	return c.cyan.Sprint(text)
}

// Symbol returns the symbol for a diff operation
func (c *Color) Symbol(action string) string {
	switch action {
	case "add":
		return c.Add("+")
	case "remove":
		return c.Destroy("-")
	default:
		return " "
	}
}

// FormatSummary formats the add/remove counts line
func (c *Color) FormatSummary(added, removed int) string {
	parts := []string{
		c.Add(fmt.Sprintf("%d to add", added)),
		c.Destroy(fmt.Sprintf("%d to remove", removed)),
	}
	return fmt.Sprintf("Foreign keys: %s.", strings.Join(parts, ", "))
}
