// Package tabs keeps the ordered set of open tabs and which one is active, and keeps the
// URL bar and tab labels in step with them.
package tabs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/engine"
)

// PlaceholderTitle labels a tab until its first page finishes loading.
const PlaceholderTitle = "New Tab"

// ID identifies a tab for its whole lifetime, independent of its position.
type ID string

func newID() ID {
	return ID(uuid.NewString())
}

// Surface is the navigation surface a tab owns.
type Surface interface {
	Load(addr string)
	Back()
	Forward()
	Reload()
	URL() string
	Title() string
	Close()
}

// SurfaceFactory creates the surface for a new tab. onLoad must be called on the UI
// thread after each successful navigation of that surface.
type SurfaceFactory func(id ID, onLoad func(engine.LoadFinished)) Surface

// HistoryRecorder persists navigations.
type HistoryRecorder interface {
	AddHistory(ctx context.Context, url, title string) error
}

// Info is the presentation state of one tab.
type Info struct {
	ID    ID
	Title string
}

// View is the presentation kept in sync with the container.
type View interface {
	ShowURL(url string)
	ShowTabs(tabs []Info, active int)
}

// Tab is one open tab.
type Tab struct {
	ID      ID
	Title   string
	Surface Surface
}

// Container owns the tabs. It is not safe for concurrent use; every call happens on the
// UI thread.
type Container struct {
	factory SurfaceFactory
	history HistoryRecorder
	view    View
	log     *zap.Logger

	tabs   []*Tab
	active int
}

// New creates an empty container. A nil view is allowed.
func New(factory SurfaceFactory, history HistoryRecorder, view View, log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	return &Container{
		factory: factory,
		history: history,
		view:    view,
		log:     log,
		active:  -1,
	}
}

// SetView replaces the view and redraws it.
func (c *Container) SetView(v View) {
	c.view = v
	c.refresh()
}

// OpenTab appends a tab loading url, makes it active and records the visit. The tab stays
// open when recording fails; the error is returned for the caller to surface.
func (c *Container) OpenTab(ctx context.Context, url string) (*Tab, error) {
	tab := &Tab{ID: newID(), Title: PlaceholderTitle}
	id := tab.ID
	tab.Surface = c.factory(id, func(evt engine.LoadFinished) {
		c.HandleLoadFinished(id, evt)
	})

	c.tabs = append(c.tabs, tab)
	c.active = len(c.tabs) - 1
	c.log.Debug("tab opened", zap.String("tab", string(id)), zap.String("url", url))

	tab.Surface.Load(url)
	c.refresh()

	if c.history != nil {
		if err := c.history.AddHistory(ctx, url, PlaceholderTitle); err != nil {
			return tab, fmt.Errorf("record history for %s: %w", url, err)
		}
	}
	return tab, nil
}

// SwitchTo activates the tab at index.
func (c *Container) SwitchTo(index int) error {
	if index < 0 || index >= len(c.tabs) {
		return fmt.Errorf("tab index %d out of range [0,%d)", index, len(c.tabs))
	}
	c.active = index
	c.refresh()
	return nil
}

// SwitchToID activates the tab with the given id.
func (c *Container) SwitchToID(id ID) error {
	index := c.IndexOf(id)
	if index < 0 {
		return fmt.Errorf("no tab %s", id)
	}
	return c.SwitchTo(index)
}

// Close closes the tab at index and reports whether it did. The last tab is never closed.
func (c *Container) Close(index int) bool {
	if index < 0 || index >= len(c.tabs) || len(c.tabs) <= 1 {
		return false
	}

	closed := c.tabs[index]
	activeID := c.tabs[c.active].ID

	c.tabs = append(c.tabs[:index], c.tabs[index+1:]...)
	closed.Surface.Close()

	if closed.ID == activeID {
		// The right-hand neighbour slides into this position.
		if index >= len(c.tabs) {
			index = len(c.tabs) - 1
		}
		c.active = index
	} else {
		c.active = c.IndexOf(activeID)
	}

	c.log.Debug("tab closed", zap.String("tab", string(closed.ID)))
	c.refresh()
	return true
}

// CloseID closes the tab with the given id.
func (c *Container) CloseID(id ID) bool {
	return c.Close(c.IndexOf(id))
}

// HandleLoadFinished applies a load completion to the tab it belongs to. Only the active
// tab drives the URL bar. Completions for closed tabs are ignored.
func (c *Container) HandleLoadFinished(id ID, evt engine.LoadFinished) {
	index := c.IndexOf(id)
	if index < 0 {
		c.log.Debug("load finished for closed tab", zap.String("tab", string(id)))
		return
	}
	c.tabs[index].Title = evt.Title

	if c.view == nil {
		return
	}
	if index == c.active {
		c.view.ShowURL(evt.URL)
	}
	c.view.ShowTabs(c.infos(), c.active)
}

// Active returns the active tab, or nil when there are no tabs.
func (c *Container) Active() *Tab {
	if c.active < 0 || c.active >= len(c.tabs) {
		return nil
	}
	return c.tabs[c.active]
}

// ActiveIndex returns the position of the active tab, or -1.
func (c *Container) ActiveIndex() int {
	return c.active
}

// Len returns the number of open tabs.
func (c *Container) Len() int {
	return len(c.tabs)
}

// Tab returns the tab at index, or nil.
func (c *Container) Tab(index int) *Tab {
	if index < 0 || index >= len(c.tabs) {
		return nil
	}
	return c.tabs[index]
}

// IndexOf returns the position of the tab with id, or -1.
func (c *Container) IndexOf(id ID) int {
	for i, t := range c.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// refresh redraws the tab strip and shows the active tab's URL.
func (c *Container) refresh() {
	if c.view == nil {
		return
	}
	if t := c.Active(); t != nil {
		c.view.ShowURL(t.Surface.URL())
	}
	c.view.ShowTabs(c.infos(), c.active)
}

func (c *Container) infos() []Info {
	infos := make([]Info, len(c.tabs))
	for i, t := range c.tabs {
		infos[i] = Info{ID: t.ID, Title: t.Title}
	}
	return infos
}
