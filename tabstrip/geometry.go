package tabstrip

import "fyne.io/fyne/v2"

const (
	// TabHeight is the height of the strip.
	TabHeight float32 = 32
	// MaxTabWidth caps each tab; tabs shrink evenly when they do not fit.
	MaxTabWidth float32 = 200

	closeInset  float32 = 20 // distance of the close glyph's left edge from the tab's right edge
	closeMargin float32 = 5
)

// Rect is an axis-aligned rectangle in strip coordinates.
type Rect struct {
	Position fyne.Position
	Size     fyne.Size
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p fyne.Position) bool {
	return p.X >= r.Position.X && p.X < r.Position.X+r.Size.Width &&
		p.Y >= r.Position.Y && p.Y < r.Position.Y+r.Size.Height
}

// TabGeometry is where one tab and its close glyph sit.
type TabGeometry struct {
	Body  Rect
	Close Rect
}

// Geometry lays out n tabs across a strip of the given size. Painting and pointer handling
// both use it.
func Geometry(n int, size fyne.Size) []TabGeometry {
	if n <= 0 {
		return nil
	}
	width := size.Width / float32(n)
	if width > MaxTabWidth {
		width = MaxTabWidth
	}

	geom := make([]TabGeometry, n)
	for i := range geom {
		body := Rect{
			Position: fyne.NewPos(float32(i)*width, 0),
			Size:     fyne.NewSize(width, size.Height),
		}
		geom[i] = TabGeometry{Body: body, Close: closeRect(body)}
	}
	return geom
}

func closeRect(body Rect) Rect {
	inset := closeInset
	if inset > body.Size.Width {
		inset = body.Size.Width
	}
	w := inset - closeMargin
	h := body.Size.Height - 2*closeMargin
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{
		Position: fyne.NewPos(body.Position.X+body.Size.Width-inset, body.Position.Y+closeMargin),
		Size:     fyne.NewSize(w, h),
	}
}

// HitTest returns the tab under p and whether p is on its close glyph. index is -1 when p
// misses every tab.
func HitTest(geom []TabGeometry, p fyne.Position) (index int, onClose bool) {
	for i, g := range geom {
		if g.Body.Contains(p) {
			return i, g.Close.Contains(p)
		}
	}
	return -1, false
}
