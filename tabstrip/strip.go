// Package tabstrip is a tab bar widget that reveals a close glyph on the hovered tab.
package tabstrip

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/chrisuehlinger/tabshell/tabs"
)

const (
	closeGlyph  = "×"
	maxLabelLen = 30
)

var (
	_ fyne.Widget       = (*Strip)(nil)
	_ fyne.Tappable     = (*Strip)(nil)
	_ desktop.Hoverable = (*Strip)(nil)
)

// Strip shows one label per tab and highlights the active tab. Tapping a tab body calls
// OnSelect; tapping the close glyph calls OnClose.
type Strip struct {
	widget.BaseWidget

	OnSelect func(id tabs.ID)
	OnClose  func(id tabs.ID)

	tabs    []tabs.Info
	active  int
	hovered int
}

// New creates an empty strip.
func New() *Strip {
	s := &Strip{active: -1, hovered: -1}
	s.ExtendBaseWidget(s)
	return s
}

// SetTabs replaces the displayed tabs.
func (s *Strip) SetTabs(infos []tabs.Info, active int) {
	s.tabs = append(s.tabs[:0], infos...)
	s.active = active
	if s.hovered >= len(s.tabs) {
		s.hovered = -1
	}
	s.Refresh()
}

// Hovered returns the index of the tab under the pointer, or -1.
func (s *Strip) Hovered() int {
	return s.hovered
}

func (s *Strip) hit(p fyne.Position) (int, bool) {
	return HitTest(Geometry(len(s.tabs), s.Size()), p)
}

func (s *Strip) MouseIn(ev *desktop.MouseEvent) {
	s.MouseMoved(ev)
}

func (s *Strip) MouseMoved(ev *desktop.MouseEvent) {
	index, _ := s.hit(ev.Position)
	if index != s.hovered {
		s.hovered = index
		s.Refresh()
	}
}

func (s *Strip) MouseOut() {
	if s.hovered != -1 {
		s.hovered = -1
		s.Refresh()
	}
}

func (s *Strip) Tapped(ev *fyne.PointEvent) {
	index, onClose := s.hit(ev.Position)
	if index < 0 {
		return
	}
	id := s.tabs[index].ID
	if onClose && len(s.tabs) > 1 {
		if s.OnClose != nil {
			s.OnClose(id)
		}
		return
	}
	if s.OnSelect != nil {
		s.OnSelect(id)
	}
}

func (s *Strip) CreateRenderer() fyne.WidgetRenderer {
	r := &stripRenderer{strip: s}
	r.sync()
	return r
}

// label shortens long titles to fit a tab.
func label(title string) string {
	runes := []rune(title)
	if len(runes) > maxLabelLen {
		return string(runes[:maxLabelLen-3]) + "..."
	}
	return title
}

type tabItem struct {
	background *canvas.Rectangle
	text       *canvas.Text
	close      *canvas.Text
}

type stripRenderer struct {
	strip   *Strip
	items   []*tabItem
	objects []fyne.CanvasObject
}

// sync matches the canvas objects to the strip's current tabs.
func (r *stripRenderer) sync() {
	s := r.strip
	for len(r.items) < len(s.tabs) {
		glyph := canvas.NewText(closeGlyph, theme.Color(theme.ColorNameForeground))
		glyph.Alignment = fyne.TextAlignCenter
		glyph.TextStyle = fyne.TextStyle{Bold: true}
		r.items = append(r.items, &tabItem{
			background: canvas.NewRectangle(theme.Color(theme.ColorNameButton)),
			text:       canvas.NewText("", theme.Color(theme.ColorNameForeground)),
			close:      glyph,
		})
	}
	r.items = r.items[:len(s.tabs)]

	r.objects = make([]fyne.CanvasObject, 0, 3*len(r.items))
	for i, item := range r.items {
		switch {
		case i == s.active:
			item.background.FillColor = theme.Color(theme.ColorNameSelection)
		case i == s.hovered:
			item.background.FillColor = theme.Color(theme.ColorNameHover)
		default:
			item.background.FillColor = theme.Color(theme.ColorNameButton)
		}
		item.background.StrokeColor = theme.Color(theme.ColorNameSeparator)
		item.background.StrokeWidth = 1

		item.text.Text = label(s.tabs[i].Title)
		item.text.Color = theme.Color(theme.ColorNameForeground)
		item.close.Color = theme.Color(theme.ColorNameForeground)
		if i == s.hovered {
			item.close.Show()
		} else {
			item.close.Hide()
		}
		r.objects = append(r.objects, item.background, item.text, item.close)
	}
}

func (r *stripRenderer) Layout(size fyne.Size) {
	pad := theme.Padding()
	for i, g := range Geometry(len(r.items), size) {
		item := r.items[i]
		item.background.Move(g.Body.Position)
		item.background.Resize(g.Body.Size)

		textHeight := item.text.MinSize().Height
		item.text.Move(g.Body.Position.AddXY(pad, (g.Body.Size.Height-textHeight)/2))
		item.text.Resize(fyne.NewSize(g.Body.Size.Width-closeInset-pad, textHeight))

		item.close.Move(g.Close.Position)
		item.close.Resize(g.Close.Size)
	}
}

func (r *stripRenderer) MinSize() fyne.Size {
	return fyne.NewSize(closeInset*2, TabHeight)
}

func (r *stripRenderer) Refresh() {
	r.sync()
	r.Layout(r.strip.Size())
	canvas.Refresh(r.strip)
}

func (r *stripRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *stripRenderer) Destroy() {}
