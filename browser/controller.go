// Package browser maps toolbar commands and URL-bar input onto the active tab, the
// dialogs, and the persistent store.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/apptheme"
	"github.com/chrisuehlinger/tabshell/config"
	"github.com/chrisuehlinger/tabshell/network"
	"github.com/chrisuehlinger/tabshell/store"
	"github.com/chrisuehlinger/tabshell/tabs"
)

// ErrNoActiveTab is returned when a command needs a tab and none is open.
var ErrNoActiveTab = errors.New("no active tab")

// Command is a toolbar action.
type Command int

const (
	CommandBack Command = iota
	CommandForward
	CommandReload
	CommandHome
	CommandBookmark
	CommandNewTab
	CommandCustomize
	CommandHistory
	CommandBookmarks
)

var commandNames = [...]string{
	CommandBack:      "Back",
	CommandForward:   "Forward",
	CommandReload:    "Reload",
	CommandHome:      "Home",
	CommandBookmark:  "Bookmark",
	CommandNewTab:    "New Tab",
	CommandCustomize: "Customize",
	CommandHistory:   "History",
	CommandBookmarks: "Bookmarks",
}

// Commands lists every command in toolbar order.
var Commands = []Command{
	CommandBack, CommandForward, CommandReload, CommandHome,
	CommandBookmark, CommandNewTab, CommandCustomize, CommandHistory, CommandBookmarks,
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return commandNames[c]
}

// Store is the persistence the controller writes to and reads from.
type Store interface {
	AddHistory(ctx context.Context, url, title string) error
	History(ctx context.Context) ([]store.HistoryEntry, error)
	AddBookmark(ctx context.Context, url, title string) error
	Bookmarks(ctx context.Context) ([]store.Bookmark, error)
	SaveCustomization(ctx context.Context, c store.Customization) error
	Customization(ctx context.Context) (store.Customization, bool, error)
}

// Dialogs presents modal information to the user.
type Dialogs interface {
	ShowHistory(entries []store.HistoryEntry)
	ShowBookmarks(bookmarks []store.Bookmark, open func(store.Bookmark))
	ShowCustomize(current store.Customization, save func(store.Customization))
	ShowInfo(title, message string)
	ShowError(err error)
}

// ThemeApplier installs a customization as the visible theme.
type ThemeApplier interface {
	Apply(c store.Customization)
}

// Controller is the toolbar controller.
type Controller struct {
	tabs    *tabs.Container
	store   Store
	dialogs Dialogs
	theme   ThemeApplier
	home    string
	log     *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithHome sets the page opened by Home and New Tab.
func WithHome(url string) Option {
	return func(c *Controller) {
		c.home = url
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithTheme sets where saved customizations are applied.
func WithTheme(t ThemeApplier) Option {
	return func(c *Controller) {
		c.theme = t
	}
}

// New creates a controller over the given tabs, store and dialogs.
func New(container *tabs.Container, st Store, dialogs Dialogs, opts ...Option) *Controller {
	c := &Controller{
		tabs:    container,
		store:   st,
		dialogs: dialogs,
		home:    config.DefaultHomePage,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Home returns the home page address.
func (c *Controller) Home() string {
	return c.home
}

// Run executes cmd.
func (c *Controller) Run(ctx context.Context, cmd Command) error {
	c.log.Debug("command", zap.Stringer("command", cmd))

	switch cmd {
	case CommandNewTab:
		return c.NewTab(ctx)
	case CommandCustomize:
		return c.Customize(ctx)
	case CommandHistory:
		return c.ShowHistory(ctx)
	case CommandBookmarks:
		return c.ShowBookmarks(ctx)
	case CommandBookmark:
		return c.AddBookmark(ctx)
	}

	tab := c.tabs.Active()
	if tab == nil {
		return ErrNoActiveTab
	}
	switch cmd {
	case CommandBack:
		tab.Surface.Back()
	case CommandForward:
		tab.Surface.Forward()
	case CommandReload:
		tab.Surface.Reload()
	case CommandHome:
		tab.Surface.Load(c.home)
	default:
		return fmt.Errorf("unknown command %v", cmd)
	}
	return nil
}

// Submit loads URL-bar text in the active tab and records it in history. Text without a
// scheme is treated as an http address.
//
// Known gap: the recorded title is the tab's title at the moment of submission, which is
// the previous page's title. The entry is not updated once the new page loads.
func (c *Controller) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	tab := c.tabs.Active()
	if tab == nil {
		return ErrNoActiveTab
	}

	addr := network.Fixup(text)
	title := tab.Surface.Title()
	tab.Surface.Load(addr)

	return c.report(c.store.AddHistory(ctx, addr, title))
}

// NewTab opens the home page in a new tab.
func (c *Controller) NewTab(ctx context.Context) error {
	_, err := c.tabs.OpenTab(ctx, c.home)
	return c.report(err)
}

// AddBookmark bookmarks the active tab's page.
func (c *Controller) AddBookmark(ctx context.Context) error {
	tab := c.tabs.Active()
	if tab == nil {
		return ErrNoActiveTab
	}

	url, title := tab.Surface.URL(), tab.Surface.Title()
	if err := c.store.AddBookmark(ctx, url, title); err != nil {
		return c.report(err)
	}
	c.dialogs.ShowInfo("Bookmark Added", fmt.Sprintf("'%s' has been bookmarked.", title))
	return nil
}

// OpenBookmark loads b in the active tab.
func (c *Controller) OpenBookmark(b store.Bookmark) error {
	tab := c.tabs.Active()
	if tab == nil {
		return ErrNoActiveTab
	}
	tab.Surface.Load(b.URL)
	return nil
}

// ShowHistory opens the history dialog.
func (c *Controller) ShowHistory(ctx context.Context) error {
	entries, err := c.store.History(ctx)
	if err != nil {
		return c.report(err)
	}
	c.dialogs.ShowHistory(entries)
	return nil
}

// ShowBookmarks opens the bookmark list; choosing an entry opens it in the active tab.
func (c *Controller) ShowBookmarks(ctx context.Context) error {
	marks, err := c.store.Bookmarks(ctx)
	if err != nil {
		return c.report(err)
	}
	c.dialogs.ShowBookmarks(marks, func(b store.Bookmark) {
		c.report(c.OpenBookmark(b))
	})
	return nil
}

// Customize opens the customization dialog prefilled with the stored colours.
func (c *Controller) Customize(ctx context.Context) error {
	current, ok, err := c.store.Customization(ctx)
	if err != nil {
		return c.report(err)
	}
	if !ok {
		current = store.Customization{Text: apptheme.DefaultText}
	}
	c.dialogs.ShowCustomize(current, func(next store.Customization) {
		c.SaveCustomization(ctx, next)
	})
	return nil
}

// SaveCustomization validates, persists and applies a customization. An empty text colour
// defaults to white.
func (c *Controller) SaveCustomization(ctx context.Context, cust store.Customization) error {
	if cust.Text == "" {
		cust.Text = apptheme.DefaultText
	}
	if err := apptheme.Validate(cust); err != nil {
		return c.report(err)
	}
	if err := c.store.SaveCustomization(ctx, cust); err != nil {
		return c.report(err)
	}
	if c.theme != nil {
		c.theme.Apply(cust)
	}
	c.log.Info("customization saved",
		zap.String("background", cust.Background),
		zap.String("text", cust.Text))
	return nil
}

// ApplyStoredCustomization applies the saved customization, if any.
func (c *Controller) ApplyStoredCustomization(ctx context.Context) error {
	cust, ok, err := c.store.Customization(ctx)
	if err != nil {
		return c.report(err)
	}
	if ok && c.theme != nil {
		c.theme.Apply(cust)
	}
	return nil
}

// report shows err to the user and returns it.
func (c *Controller) report(err error) error {
	if err == nil {
		return nil
	}
	c.log.Error("browser action failed", zap.Error(err))
	if c.dialogs != nil {
		c.dialogs.ShowError(err)
	}
	return err
}
