// Package ui provides the browser user interface using Fyne.
package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/apptheme"
	"github.com/chrisuehlinger/tabshell/browser"
	"github.com/chrisuehlinger/tabshell/engine"
	"github.com/chrisuehlinger/tabshell/logging"
	"github.com/chrisuehlinger/tabshell/page"
	"github.com/chrisuehlinger/tabshell/pageview"
	"github.com/chrisuehlinger/tabshell/tabs"
	"github.com/chrisuehlinger/tabshell/tabstrip"
)

// Config holds the window settings.
type Config struct {
	Title  string
	Width  float32
	Height float32
	Home   string

	// Dispatch delivers page loads to the UI thread. Defaults to fyne.Do.
	Dispatch engine.Dispatcher
}

// BrowserUI represents the main browser UI.
type BrowserUI struct {
	app    fyne.App
	window fyne.Window
	cfg    Config
	log    *zap.Logger
	ctx    context.Context

	loader     engine.Loader
	tabs       *tabs.Container
	controller *browser.Controller

	// Navigation controls
	backBtn    *widget.Button
	forwardBtn *widget.Button
	urlEntry   *widget.Entry

	strip      *tabstrip.Strip
	contentBox *fyne.Container
	views      map[tabs.ID]*fyne.Container
}

// NewBrowserUI creates the main window. Nothing is loaded until Start.
func NewBrowserUI(a fyne.App, loader engine.Loader, st browser.Store, cfg Config, log *zap.Logger) *BrowserUI {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Tabshell"
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = fyne.Do
	}

	w := a.NewWindow(cfg.Title)
	w.Resize(fyne.NewSize(cfg.Width, cfg.Height))

	b := &BrowserUI{
		app:    a,
		window: w,
		cfg:    cfg,
		log:    log,
		ctx:    context.Background(),
		loader: loader,
		views:  make(map[tabs.ID]*fyne.Container),
	}

	b.tabs = tabs.New(b.newSurface, st, nil, logging.Component(log, "tabs"))
	opts := []browser.Option{
		browser.WithLogger(logging.Component(log, "browser")),
		browser.WithTheme(apptheme.NewApplier(a, logging.Component(log, "theme"))),
	}
	if cfg.Home != "" {
		opts = append(opts, browser.WithHome(cfg.Home))
	}
	b.controller = browser.New(b.tabs, st, b, opts...)

	b.setupUI()
	b.setupKeyboardShortcuts()
	b.tabs.SetView(b)

	return b
}

// setupUI creates the browser UI components.
func (b *BrowserUI) setupUI() {
	buttons := make(map[browser.Command]*widget.Button, len(browser.Commands))
	for _, cmd := range browser.Commands {
		buttons[cmd] = widget.NewButtonWithIcon(cmd.String(), commandIcon(cmd), func() {
			b.run(cmd)
		})
	}
	b.backBtn = buttons[browser.CommandBack]
	b.forwardBtn = buttons[browser.CommandForward]

	b.urlEntry = widget.NewEntry()
	b.urlEntry.SetPlaceHolder("Enter URL...")
	b.urlEntry.OnSubmitted = b.submit

	navBar := container.NewBorder(nil, nil,
		container.NewHBox(
			buttons[browser.CommandBack],
			buttons[browser.CommandForward],
			buttons[browser.CommandReload],
			buttons[browser.CommandHome],
		),
		container.NewHBox(
			buttons[browser.CommandBookmark],
			buttons[browser.CommandNewTab],
			buttons[browser.CommandCustomize],
			buttons[browser.CommandHistory],
			buttons[browser.CommandBookmarks],
		),
		b.urlEntry,
	)

	b.strip = tabstrip.New()
	b.strip.OnSelect = func(id tabs.ID) {
		if err := b.tabs.SwitchToID(id); err != nil {
			b.log.Debug("select tab", zap.Error(err))
		}
	}
	b.strip.OnClose = func(id tabs.ID) {
		b.tabs.CloseID(id)
	}

	b.contentBox = container.NewStack()

	b.window.SetContent(container.NewBorder(
		container.NewVBox(navBar, b.strip),
		nil, nil, nil,
		b.contentBox,
	))
}

func commandIcon(cmd browser.Command) fyne.Resource {
	switch cmd {
	case browser.CommandBack:
		return theme.NavigateBackIcon()
	case browser.CommandForward:
		return theme.NavigateNextIcon()
	case browser.CommandReload:
		return theme.ViewRefreshIcon()
	case browser.CommandHome:
		return theme.HomeIcon()
	case browser.CommandBookmark:
		return theme.DocumentSaveIcon()
	case browser.CommandNewTab:
		return theme.ContentAddIcon()
	case browser.CommandCustomize:
		return theme.SettingsIcon()
	case browser.CommandHistory:
		return theme.HistoryIcon()
	case browser.CommandBookmarks:
		return theme.ListIcon()
	}
	return nil
}

// setupKeyboardShortcuts sets up keyboard shortcuts.
func (b *BrowserUI) setupKeyboardShortcuts() {
	shortcuts := []struct {
		key fyne.KeyName
		mod fyne.KeyModifier
		fn  func()
	}{
		{fyne.KeyT, fyne.KeyModifierControl, func() { b.run(browser.CommandNewTab) }},
		{fyne.KeyW, fyne.KeyModifierControl, b.closeActiveTab},
		{fyne.KeyL, fyne.KeyModifierControl, b.focusURLBar},
		{fyne.KeyR, fyne.KeyModifierControl, func() { b.run(browser.CommandReload) }},
		{fyne.KeyLeft, fyne.KeyModifierAlt, func() { b.run(browser.CommandBack) }},
		{fyne.KeyRight, fyne.KeyModifierAlt, func() { b.run(browser.CommandForward) }},
	}
	for _, s := range shortcuts {
		b.window.Canvas().AddShortcut(&desktop.CustomShortcut{
			KeyName:  s.key,
			Modifier: s.mod,
		}, func(fyne.Shortcut) {
			s.fn()
		})
	}
}

// newSurface creates the navigation surface and content pane of a new tab.
func (b *BrowserUI) newSurface(id tabs.ID, onLoad func(engine.LoadFinished)) tabs.Surface {
	pane := container.NewStack(pageview.Blank())
	b.views[id] = pane

	var surface *engine.Surface
	show := func(obj fyne.CanvasObject) {
		pane.Objects = []fyne.CanvasObject{obj}
		pane.Refresh()
	}

	surface = engine.NewSurface(b.loader,
		engine.WithDispatcher(b.cfg.Dispatch),
		engine.WithLogger(logging.Component(b.log, "surface").With(zap.String("tab", string(id)))),
		engine.OnLoadStarted(func(string) {
			if surface.Page() == nil {
				show(pageview.Loading())
			}
			b.updateNavigationButtons()
		}),
		engine.OnPage(func(p *page.Page) {
			show(pageview.Render(p, surface.Load))
		}),
		engine.OnLoadFailed(func(addr string, err error) {
			show(pageview.ErrorView(addr, err))
			b.updateNavigationButtons()
		}),
		engine.OnLoadFinished(func(evt engine.LoadFinished) {
			onLoad(evt)
			b.updateNavigationButtons()
		}),
	)
	return surface
}

// ShowURL implements tabs.View.
func (b *BrowserUI) ShowURL(url string) {
	b.urlEntry.SetText(url)
}

// ShowTabs implements tabs.View.
func (b *BrowserUI) ShowTabs(infos []tabs.Info, active int) {
	open := make(map[tabs.ID]bool, len(infos))
	for _, info := range infos {
		open[info.ID] = true
	}
	for id := range b.views {
		if !open[id] {
			delete(b.views, id)
		}
	}

	b.strip.SetTabs(infos, active)

	if active >= 0 && active < len(infos) {
		if pane, ok := b.views[infos[active].ID]; ok {
			b.contentBox.Objects = []fyne.CanvasObject{pane}
			b.contentBox.Refresh()
		}
		b.window.SetTitle(infos[active].Title + " - " + b.cfg.Title)
	}
	b.updateNavigationButtons()
}

// updateNavigationButtons updates the enabled state of nav buttons.
func (b *BrowserUI) updateNavigationButtons() {
	type history interface {
		CanGoBack() bool
		CanGoForward() bool
	}

	var back, forward bool
	if tab := b.tabs.Active(); tab != nil {
		if h, ok := tab.Surface.(history); ok {
			back, forward = h.CanGoBack(), h.CanGoForward()
		}
	}
	setEnabled(b.backBtn, back)
	setEnabled(b.forwardBtn, forward)
}

func setEnabled(btn *widget.Button, enabled bool) {
	if enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

func (b *BrowserUI) run(cmd browser.Command) {
	if err := b.controller.Run(b.ctx, cmd); err != nil {
		b.log.Debug("command failed", zap.Stringer("command", cmd), zap.Error(err))
	}
	b.updateNavigationButtons()
}

func (b *BrowserUI) submit(text string) {
	if err := b.controller.Submit(b.ctx, text); err != nil {
		b.log.Debug("submit failed", zap.Error(err))
	}
}

// closeActiveTab closes the currently active tab unless it is the last one.
func (b *BrowserUI) closeActiveTab() {
	b.tabs.Close(b.tabs.ActiveIndex())
}

// focusURLBar focuses the URL entry.
func (b *BrowserUI) focusURLBar() {
	b.window.Canvas().Focus(b.urlEntry)
	b.urlEntry.CursorColumn = len([]rune(b.urlEntry.Text))
}

// Start applies the stored customization and opens the home page. Failures have already
// been shown to the user when they are returned.
func (b *BrowserUI) Start(ctx context.Context) error {
	b.ctx = ctx
	if err := b.controller.ApplyStoredCustomization(ctx); err != nil {
		b.log.Warn("failed to apply customization", zap.Error(err))
	}
	return b.controller.NewTab(ctx)
}

// Run shows the window and blocks until it is closed.
func (b *BrowserUI) Run() {
	b.window.ShowAndRun()
}

// Tabs exposes the tab container.
func (b *BrowserUI) Tabs() *tabs.Container {
	return b.tabs
}
