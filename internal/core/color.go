package core

import (
	"fmt"
	"image/color"
)

// Color is a 15-bit BGR555 color as used by the emulated hardware:
// bits 0-4 red, 5-9 green, 10-14 blue.
type Color uint16

// Predefined colors.
const (
	ColorBlack  Color = 0
	ColorRed    Color = 0x001F
	ColorGreen  Color = 0x03E0
	ColorYellow Color = 0x03FF
	ColorBlue   Color = 0x7C00
	ColorPurple Color = 0x7C1F
	ColorCyan   Color = 0x7FE0
	ColorWhite  Color = 0x7FFF
)

// NewColor builds a color from 5-bit components. Components outside
// [0, 31] are clamped.
func NewColor(r, g, b int) Color {
	r = Clamp(r, 0, 31)
	g = Clamp(g, 0, 31)
	b = Clamp(b, 0, 31)
	return Color(r | g<<5 | b<<10)
}

// Components returns the 5-bit red, green and blue components.
func (c Color) Components() (r, g, b int) {
	return int(c & 0x1F), int(c>>5) & 0x1F, int(c>>10) & 0x1F
}

// RGBA expands the color to 8 bits per channel.
func (c Color) RGBA() color.RGBA {
	r, g, b := c.Components()
	return color.RGBA{R: expand5(r), G: expand5(g), B: expand5(b), A: 0xFF}
}

// Hex returns the color as a #rrggbb string.
func (c Color) Hex() string {
	rgba := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// lerp interpolates between two colors per channel. t is in [0, 1].
func lerp(a, b Color, t float64) Color {
	ar, ag, ab := a.Components()
	br, bg, bb := b.Components()
	mix := func(x, y int) int {
		return int(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return NewColor(mix(ar, br), mix(ag, bg), mix(ab, bb))
}

func expand5(v int) uint8 {
	return uint8(v<<3 | v>>2)
}
