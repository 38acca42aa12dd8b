package ui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/tabshell/browser"
	"github.com/chrisuehlinger/tabshell/engine"
	"github.com/chrisuehlinger/tabshell/page"
	"github.com/chrisuehlinger/tabshell/store"
	"github.com/chrisuehlinger/tabshell/tabs"
)

const home = "https://home.example"

// queue collects dispatched callbacks so the test goroutine runs them as the UI thread.
type queue chan func()

func (q queue) dispatch(f func()) { q <- f }

func (q queue) pump(t *testing.T) {
	t.Helper()
	select {
	case f := <-q:
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a page load")
	}
}

var titles = map[string]string{
	home:                    "Home",
	"http://example.com":    "Example Domain",
	"https://other.example": "Other",
}

func loader(ctx context.Context, addr string) (*page.Page, error) {
	title, ok := titles[addr]
	if !ok {
		return nil, errors.New("no such host")
	}
	return &page.Page{
		URL:    addr,
		Title:  title,
		Blocks: []page.Block{{Inlines: []page.Inline{{Text: title}}}},
	}, nil
}

type fixture struct {
	ui    *BrowserUI
	store *store.Store
	q     queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a := test.NewApp()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "browser.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	q := make(queue, 16)
	b := NewBrowserUI(a, engine.LoaderFunc(loader), st, Config{
		Width:    800,
		Height:   600,
		Home:     home,
		Dispatch: q.dispatch,
	}, nil)
	return &fixture{ui: b, store: st, q: q}
}

func (f *fixture) history(t *testing.T) []store.HistoryEntry {
	t.Helper()
	entries, err := f.store.History(context.Background())
	require.NoError(t, err)
	return entries
}

func TestStartOpensHomeTab(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ui.Start(context.Background()))

	assert.Equal(t, 1, f.ui.Tabs().Len())
	assert.Equal(t, home, f.ui.urlEntry.Text)

	entries := f.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, home, entries[0].URL)
	assert.Equal(t, tabs.PlaceholderTitle, entries[0].Title)

	f.q.pump(t)
	assert.Equal(t, "Home", f.ui.Tabs().Active().Title)
	assert.Equal(t, "Home - Tabshell", f.ui.window.Title())
}

func TestSubmitLoadsAndRecords(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ui.Start(context.Background()))
	f.q.pump(t)

	f.ui.submit("example.com")
	f.q.pump(t)

	assert.Equal(t, "http://example.com", f.ui.urlEntry.Text)
	assert.Equal(t, "Example Domain", f.ui.Tabs().Active().Title)
	assert.False(t, f.ui.backBtn.Disabled())
	assert.True(t, f.ui.forwardBtn.Disabled())

	entries := f.history(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "http://example.com", entries[0].URL)
	assert.Equal(t, "Home", entries[0].Title)
}

func TestBackgroundLoadDoesNotTouchURLBar(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ui.Start(context.Background()))

	// The home tab is still loading when a second tab opens.
	f.ui.run(browser.CommandNewTab)
	f.ui.submit("https://other.example")
	assert.Equal(t, 2, f.ui.Tabs().Len())

	// Three loads were dispatched: both home loads and the submitted one. The
	// superseded home load of the second tab is dropped on arrival.
	for i := 0; i < 3; i++ {
		f.q.pump(t)
	}
	// Either order of completion leaves the active tab's URL in the bar.
	assert.Equal(t, "https://other.example", f.ui.urlEntry.Text)
}

func TestStripSelectAndClose(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ui.Start(context.Background()))
	f.q.pump(t)
	f.ui.run(browser.CommandNewTab)
	f.q.pump(t)

	first := f.ui.Tabs().Tab(0)
	second := f.ui.Tabs().Tab(1)

	f.ui.strip.OnSelect(first.ID)
	assert.Equal(t, 0, f.ui.Tabs().ActiveIndex())
	require.Len(t, f.ui.contentBox.Objects, 1)
	assert.Same(t, f.ui.views[first.ID], f.ui.contentBox.Objects[0])

	f.ui.strip.OnClose(first.ID)
	assert.Equal(t, 1, f.ui.Tabs().Len())
	assert.Equal(t, second.ID, f.ui.Tabs().Active().ID)
	assert.NotContains(t, f.ui.views, first.ID)

	f.ui.closeActiveTab()
	assert.Equal(t, 1, f.ui.Tabs().Len(), "the last tab stays open")
}

func TestBookmarkAndCustomizeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ui.Start(ctx))
	f.q.pump(t)

	f.ui.run(browser.CommandBookmark)
	marks, err := f.store.Bookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, store.Bookmark{ID: marks[0].ID, URL: home, Title: "Home"}, marks[0])

	require.NoError(t, f.ui.controller.SaveCustomization(ctx, store.Customization{Background: "#202020"}))
	c, ok, err := f.store.Customization(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "#202020", c.Background)
	assert.Equal(t, "#ffffff", c.Text)
}

func TestFailedLoadKeepsPriorState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ui.Start(context.Background()))
	f.q.pump(t)

	f.ui.submit("unknown.example")
	f.q.pump(t)

	assert.Equal(t, home, f.ui.urlEntry.Text)
	assert.Equal(t, "Home", f.ui.Tabs().Active().Title)
	pane := f.ui.views[f.ui.Tabs().Active().ID]
	require.Len(t, pane.Objects, 1)
}

func TestDialogLabels(t *testing.T) {
	assert.Equal(t, "Example Domain - https://example.com/",
		historyLabel(store.HistoryEntry{URL: "https://example.com/", Title: "Example Domain"}))
	assert.Equal(t, "Docs - https://go.dev/doc/",
		bookmarkLabel(store.Bookmark{URL: "https://go.dev/doc/", Title: "Docs"}))
}
