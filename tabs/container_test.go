package tabs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/tabshell/engine"
)

type fakeSurface struct {
	id     ID
	onLoad func(engine.LoadFinished)
	url    string
	title  string
	loads  []string
	backs  int
	closed bool
}

func (s *fakeSurface) Load(addr string) { s.url = addr; s.loads = append(s.loads, addr) }
func (s *fakeSurface) Back()            { s.backs++ }
func (s *fakeSurface) Forward()         {}
func (s *fakeSurface) Reload()          {}
func (s *fakeSurface) URL() string      { return s.url }
func (s *fakeSurface) Title() string    { return s.title }
func (s *fakeSurface) Close()           { s.closed = true }

// finish simulates the surface completing a load.
func (s *fakeSurface) finish(url, title string) {
	s.url, s.title = url, title
	s.onLoad(engine.LoadFinished{URL: url, Title: title})
}

type historyCall struct{ url, title string }

type fakeHistory struct {
	calls []historyCall
	err   error
}

func (h *fakeHistory) AddHistory(ctx context.Context, url, title string) error {
	h.calls = append(h.calls, historyCall{url, title})
	return h.err
}

type fakeView struct {
	urls   []string
	tabs   []Info
	active int
}

func (v *fakeView) ShowURL(url string) { v.urls = append(v.urls, url) }
func (v *fakeView) ShowTabs(tabs []Info, active int) {
	v.tabs = tabs
	v.active = active
}

func (v *fakeView) lastURL() string {
	if len(v.urls) == 0 {
		return ""
	}
	return v.urls[len(v.urls)-1]
}

func (v *fakeView) titles() []string {
	out := make([]string, len(v.tabs))
	for i, t := range v.tabs {
		out[i] = t.Title
	}
	return out
}

type fixture struct {
	container *Container
	history   *fakeHistory
	view      *fakeView
	surfaces  map[ID]*fakeSurface
}

func newFixture() *fixture {
	f := &fixture{
		history:  &fakeHistory{},
		view:     &fakeView{},
		surfaces: make(map[ID]*fakeSurface),
	}
	factory := func(id ID, onLoad func(engine.LoadFinished)) Surface {
		s := &fakeSurface{id: id, onLoad: onLoad}
		f.surfaces[id] = s
		return s
	}
	f.container = New(factory, f.history, f.view, nil)
	return f
}

func (f *fixture) open(t *testing.T, url string) *Tab {
	t.Helper()
	tab, err := f.container.OpenTab(context.Background(), url)
	require.NoError(t, err)
	return tab
}

func (f *fixture) surface(tab *Tab) *fakeSurface {
	return f.surfaces[tab.ID]
}

func TestOpenTabActivatesAndRecordsHistory(t *testing.T) {
	f := newFixture()

	first := f.open(t, "https://www.google.com")
	assert.Equal(t, 1, f.container.Len())
	assert.Equal(t, 0, f.container.ActiveIndex())
	assert.Equal(t, []string{"https://www.google.com"}, f.surface(first).loads)

	second := f.open(t, "https://example.com")
	assert.Equal(t, 2, f.container.Len())
	assert.Equal(t, 1, f.container.ActiveIndex())
	assert.Same(t, second, f.container.Active())
	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, []historyCall{
		{"https://www.google.com", "New Tab"},
		{"https://example.com", "New Tab"},
	}, f.history.calls)
	assert.Equal(t, []string{"New Tab", "New Tab"}, f.view.titles())
	assert.Equal(t, 1, f.view.active)
	assert.Equal(t, "https://example.com", f.view.lastURL())
}

func TestOpenTabKeepsTabWhenHistoryFails(t *testing.T) {
	f := newFixture()
	f.history.err = errors.New("disk full")

	tab, err := f.container.OpenTab(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, f.history.err)
	require.NotNil(t, tab)
	assert.Equal(t, 1, f.container.Len())
}

func TestSwitchToShowsActiveURLWithoutHistory(t *testing.T) {
	f := newFixture()
	first := f.open(t, "https://a.example")
	f.open(t, "https://b.example")
	f.surface(first).finish("https://a.example/", "A")
	recorded := len(f.history.calls)

	require.NoError(t, f.container.SwitchTo(0))
	assert.Equal(t, 0, f.container.ActiveIndex())
	assert.Equal(t, "https://a.example/", f.view.lastURL())
	assert.Len(t, f.history.calls, recorded)

	assert.Error(t, f.container.SwitchTo(2))
	assert.Error(t, f.container.SwitchTo(-1))
	assert.Equal(t, 0, f.container.ActiveIndex())
}

func TestSwitchToID(t *testing.T) {
	f := newFixture()
	first := f.open(t, "https://a.example")
	f.open(t, "https://b.example")

	require.NoError(t, f.container.SwitchToID(first.ID))
	assert.Equal(t, 0, f.container.ActiveIndex())
	assert.Error(t, f.container.SwitchToID("missing"))
}

func TestCloseLastTabIsNoop(t *testing.T) {
	f := newFixture()
	only := f.open(t, "https://example.com")

	assert.False(t, f.container.Close(0))
	assert.Equal(t, 1, f.container.Len())
	assert.False(t, f.surface(only).closed)
}

func TestCloseActiveTabActivatesRightNeighbour(t *testing.T) {
	f := newFixture()
	a := f.open(t, "https://a.example")
	b := f.open(t, "https://b.example")
	c := f.open(t, "https://c.example")

	require.NoError(t, f.container.SwitchTo(1))
	assert.True(t, f.container.Close(1))
	assert.True(t, f.surface(b).closed)
	assert.Equal(t, 2, f.container.Len())
	assert.Equal(t, c.ID, f.container.Active().ID)
	assert.Equal(t, "https://c.example", f.view.lastURL())

	// Closing the rightmost active tab falls back to the new last tab.
	assert.True(t, f.container.Close(1))
	assert.Equal(t, a.ID, f.container.Active().ID)
	assert.Equal(t, 0, f.view.active)
}

func TestCloseInactiveTabKeepsActiveTab(t *testing.T) {
	f := newFixture()
	a := f.open(t, "https://a.example")
	f.open(t, "https://b.example")
	c := f.open(t, "https://c.example")

	assert.True(t, f.container.CloseID(a.ID))
	assert.Equal(t, c.ID, f.container.Active().ID)
	assert.Equal(t, 1, f.container.ActiveIndex())

	assert.False(t, f.container.CloseID(a.ID), "already closed")
	assert.False(t, f.container.Close(5))
}

func TestLoadFinishedUpdatesOnlyItsTab(t *testing.T) {
	f := newFixture()
	a := f.open(t, "https://a.example")
	b := f.open(t, "https://b.example")
	recorded := len(f.history.calls)

	// Background tab: label changes, URL bar keeps the active tab's address.
	f.surface(a).finish("https://a.example/", "Alpha")
	assert.Equal(t, []string{"Alpha", "New Tab"}, f.view.titles())
	assert.Equal(t, "https://b.example", f.view.lastURL())

	f.surface(b).finish("https://b.example/home", "Beta")
	assert.Equal(t, []string{"Alpha", "Beta"}, f.view.titles())
	assert.Equal(t, "https://b.example/home", f.view.lastURL())

	assert.Len(t, f.history.calls, recorded, "load completion never writes history")
}

func TestLoadFinishedFollowsTabAcrossReorder(t *testing.T) {
	f := newFixture()
	a := f.open(t, "https://a.example")
	b := f.open(t, "https://b.example")
	f.open(t, "https://c.example")

	require.True(t, f.container.Close(f.container.IndexOf(a.ID)))
	f.surface(b).finish("https://b.example/", "Beta")

	assert.Equal(t, 0, f.container.IndexOf(b.ID))
	assert.Equal(t, "Beta", f.container.Tab(0).Title)
	assert.Equal(t, []string{"Beta", "New Tab"}, f.view.titles())
}

func TestLoadFinishedForClosedTabIsDropped(t *testing.T) {
	f := newFixture()
	a := f.open(t, "https://a.example")
	f.open(t, "https://b.example")
	require.True(t, f.container.CloseID(a.ID))
	urls := len(f.view.urls)

	f.surface(a).finish("https://a.example/", "Ghost")
	assert.Len(t, f.view.urls, urls)
	assert.Equal(t, []string{"New Tab"}, f.view.titles())
}

func TestNilViewIsAllowed(t *testing.T) {
	f := newFixture()
	f.container = New(f.container.factory, nil, nil, nil)

	tab := f.open(t, "https://example.com")
	f.surface(tab).finish("https://example.com/", "Example")
	assert.Equal(t, "Example", f.container.Active().Title)

	view := &fakeView{}
	f.container.SetView(view)
	assert.Equal(t, "https://example.com/", view.lastURL())
	assert.Equal(t, []string{"Example"}, view.titles())
}

func TestEmptyContainer(t *testing.T) {
	f := newFixture()
	assert.Nil(t, f.container.Active())
	assert.Equal(t, -1, f.container.ActiveIndex())
	assert.Nil(t, f.container.Tab(0))
	assert.False(t, f.container.Close(0))
}
