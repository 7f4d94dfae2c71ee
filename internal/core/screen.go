package core

import (
	"image"
	"math"
)

// Fixed resolution of each emulated screen.
const (
	ScreenWidth  = 256
	ScreenHeight = 192
)

// ScreenID addresses one of the two screens. Values match the emulated API
// constants SCREEN_DOWN and SCREEN_UP.
type ScreenID int

const (
	ScreenDown ScreenID = 0
	ScreenUp   ScreenID = 1
)

// String returns a human-readable name for the screen.
func (id ScreenID) String() string {
	switch id {
	case ScreenUp:
		return "top"
	case ScreenDown:
		return "bottom"
	default:
		return "unknown"
	}
}

// Valid reports whether id names an existing screen.
func (id ScreenID) Valid() bool {
	return id == ScreenUp || id == ScreenDown
}

// TextRun is a string printed at a pixel position. Glyph rasterization is
// left to the presentation layer, so text is retained as runs.
type TextRun struct {
	X, Y  int
	Text  string
	Color Color
}

// Surface is one retained raster target. Nothing is cleared between ticks
// unless the script asks for it.
type Surface struct {
	pix  []Color
	clip Rect
	text []TextRun
}

// NewSurface creates a cleared surface at the fixed screen resolution.
func NewSurface() *Surface {
	s := &Surface{pix: make([]Color, ScreenWidth*ScreenHeight)}
	s.Reset()
	return s
}

// Bounds returns the full surface rectangle.
func (s *Surface) Bounds() Rect {
	return NewRect(0, 0, ScreenWidth, ScreenHeight)
}

// Reset returns the surface to its default state: black, no text, no clip.
func (s *Surface) Reset() {
	s.Clear(ColorBlack)
	s.clip = s.Bounds()
}

// Clear fills the whole surface with c and drops all text runs.
// The clip rectangle does not apply.
func (s *Surface) Clear(c Color) {
	for i := range s.pix {
		s.pix[i] = c
	}
	s.text = s.text[:0]
}

// SetClip restricts drawing to r intersected with the surface bounds.
func (s *Surface) SetClip(r Rect) {
	s.clip = r.Intersect(s.Bounds())
}

// ResetClip removes the clip rectangle.
func (s *Surface) ResetClip() {
	s.clip = s.Bounds()
}

// Clip returns the active clip rectangle.
func (s *Surface) Clip() Rect {
	return s.clip
}

// Set plots a pixel. Pixels outside the clip rectangle are ignored.
func (s *Surface) Set(x, y int, c Color) {
	if !s.clip.Contains(x, y) {
		return
	}
	s.pix[y*ScreenWidth+x] = c
}

// Get returns the pixel at (x, y), or black outside the surface.
func (s *Surface) Get(x, y int) Color {
	if !s.Bounds().Contains(x, y) {
		return ColorBlack
	}
	return s.pix[y*ScreenWidth+x]
}

// DrawLine draws a line between two points using Bresenham's algorithm.
// The segment is clipped to the clip rectangle first, so the cost depends
// on the visible part only.
func (s *Surface) DrawLine(x0, y0, x1, y1 int, c Color) {
	x0, y0, x1, y1, ok := clipLine(s.clip, x0, y0, x1, y1)
	if !ok {
		return
	}
	dx := Abs(x1 - x0)
	dy := -Abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		s.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// clipLine clips a segment to the pixels of r (Liang-Barsky). Endpoints
// already inside r are returned unchanged, and a clipped endpoint lies
// exactly on the edge that cut it. ok is false when no part of the
// segment is inside.
func clipLine(r Rect, x0, y0, x1, y1 int) (int, int, int, int, bool) {
	if r.Empty() {
		return 0, 0, 0, 0, false
	}
	fx0, fy0 := float64(x0), float64(y0)
	dx, dy := float64(x1)-fx0, float64(y1)-fy0
	minX, maxX := r.X, r.Right()-1
	minY, maxY := r.Y, r.Bottom()-1

	edges := [4]struct{ p, q float64 }{
		{-dx, fx0 - float64(minX)},
		{dx, float64(maxX) - fx0},
		{-dy, fy0 - float64(minY)},
		{dy, float64(maxY) - fy0},
	}
	t0, t1 := 0.0, 1.0
	in, out := -1, -1
	for i, e := range edges {
		if e.p == 0 {
			if e.q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := e.q / e.p
		if e.p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			if t > t0 {
				t0, in = t, i
			}
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			if t < t1 {
				t1, out = t, i
			}
		}
	}

	point := func(t float64, edge int) (int, int) {
		x := Clamp(int(math.Round(fx0+t*dx)), minX, maxX)
		y := Clamp(int(math.Round(fy0+t*dy)), minY, maxY)
		switch edge {
		case 0:
			x = minX
		case 1:
			x = maxX
		case 2:
			y = minY
		case 3:
			y = maxY
		}
		return x, y
	}
	if in >= 0 {
		x0, y0 = point(t0, in)
	}
	if out >= 0 {
		x1, y1 = point(t1, out)
	}
	return x0, y0, x1, y1, true
}

// DrawRect draws the outline of r.
func (s *Surface) DrawRect(r Rect, c Color) {
	if r.Empty() {
		return
	}
	x1, y1 := r.Right()-1, r.Bottom()-1
	s.DrawLine(r.X, r.Y, x1, r.Y, c)
	s.DrawLine(r.X, y1, x1, y1, c)
	s.DrawLine(r.X, r.Y, r.X, y1, c)
	s.DrawLine(x1, r.Y, x1, y1, c)
}

// FillRect fills r, clipped to the active clip rectangle.
func (s *Surface) FillRect(r Rect, c Color) {
	area := r.Intersect(s.clip)
	for y := area.Y; y < area.Bottom(); y++ {
		row := s.pix[y*ScreenWidth : (y+1)*ScreenWidth]
		for x := area.X; x < area.Right(); x++ {
			row[x] = c
		}
	}
}

// FillGradient fills r with a bilinear blend of four corner colors
// (top-left, top-right, bottom-left, bottom-right).
func (s *Surface) FillGradient(r Rect, tl, tr, bl, br Color) {
	area := r.Intersect(s.clip)
	for y := area.Y; y < area.Bottom(); y++ {
		ty := 0.0
		if r.H > 1 {
			ty = float64(y-r.Y) / float64(r.H-1)
		}
		left := lerp(tl, bl, ty)
		right := lerp(tr, br, ty)
		for x := area.X; x < area.Right(); x++ {
			tx := 0.0
			if r.W > 1 {
				tx = float64(x-r.X) / float64(r.W-1)
			}
			s.pix[y*ScreenWidth+x] = lerp(left, right, tx)
		}
	}
}

// Print retains a text run at (x, y). A run starting at the same position
// replaces the previous one. Runs starting outside the clip are dropped.
func (s *Surface) Print(x, y int, text string, c Color) {
	if !s.clip.Contains(x, y) {
		return
	}
	for i := range s.text {
		if s.text[i].X == x && s.text[i].Y == y {
			s.text[i] = TextRun{X: x, Y: y, Text: text, Color: c}
			return
		}
	}
	s.text = append(s.text, TextRun{X: x, Y: y, Text: text, Color: c})
}

// View returns an immutable copy of the surface.
func (s *Surface) View() View {
	v := View{
		pix:  make([]Color, len(s.pix)),
		text: make([]TextRun, len(s.text)),
	}
	copy(v.pix, s.pix)
	copy(v.text, s.text)
	return v
}

// View is a read-only snapshot of a surface handed to the presentation
// layer. The zero View reads as a blank (black) screen.
type View struct {
	pix  []Color
	text []TextRun
}

// BlankView returns a cleared view.
func BlankView() View {
	return View{pix: make([]Color, ScreenWidth*ScreenHeight)}
}

// At returns the pixel at (x, y).
func (v View) At(x, y int) Color {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight || v.pix == nil {
		return ColorBlack
	}
	return v.pix[y*ScreenWidth+x]
}

// Text returns the retained text runs.
func (v View) Text() []TextRun {
	return v.text
}

// IsBlank reports whether the view equals the cleared state.
func (v View) IsBlank() bool {
	if len(v.text) > 0 {
		return false
	}
	for _, c := range v.pix {
		if c != ColorBlack {
			return false
		}
	}
	return true
}

// Image converts the view to an RGBA image.
func (v View) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			img.SetRGBA(x, y, v.At(x, y).RGBA())
		}
	}
	return img
}

// Screens owns the two emulated surfaces and the draw-target selector.
type Screens struct {
	top, bottom *Surface
	target      ScreenID
}

// NewScreens allocates both surfaces in their cleared state.
func NewScreens() *Screens {
	return &Screens{
		top:    NewSurface(),
		bottom: NewSurface(),
		target: ScreenDown,
	}
}

// Surface returns the surface for id. Unknown ids resolve to the
// selected target.
func (s *Screens) Surface(id ScreenID) *Surface {
	if !id.Valid() {
		id = s.target
	}
	if id == ScreenUp {
		return s.top
	}
	return s.bottom
}

// Select makes id the default target for draw calls without a screen.
func (s *Screens) Select(id ScreenID) {
	if id.Valid() {
		s.target = id
	}
}

// Target returns the selected default screen.
func (s *Screens) Target() ScreenID {
	return s.target
}

// Clear resets both surfaces and the target selector to their defaults.
func (s *Screens) Clear() {
	s.top.Reset()
	s.bottom.Reset()
	s.target = ScreenDown
}

// Present snapshots both surfaces for the presentation layer.
func (s *Screens) Present() (top, bottom View) {
	return s.top.View(), s.bottom.View()
}
