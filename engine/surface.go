package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/network"
	"github.com/chrisuehlinger/tabshell/page"
)

// LoadFinished is delivered once per successful navigation.
type LoadFinished struct {
	URL   string
	Title string
}

// Dispatcher runs f on the UI thread.
type Dispatcher func(f func())

// Immediate runs f on the calling goroutine.
func Immediate(f func()) { f() }

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithDispatcher sets where load results are delivered. The default is Immediate.
func WithDispatcher(d Dispatcher) SurfaceOption {
	return func(s *Surface) {
		s.dispatch = d
	}
}

// WithLogger sets the surface logger.
func WithLogger(l *zap.Logger) SurfaceOption {
	return func(s *Surface) {
		s.log = l
	}
}

// OnLoadFinished sets the callback fired after each successful navigation.
func OnLoadFinished(fn func(LoadFinished)) SurfaceOption {
	return func(s *Surface) {
		s.onFinished = fn
	}
}

// OnPage sets a hook receiving each successfully loaded page, before OnLoadFinished.
func OnPage(fn func(*page.Page)) SurfaceOption {
	return func(s *Surface) {
		s.onPage = fn
	}
}

// OnLoadFailed sets a hook for failed navigations. Failures never reach OnLoadFinished.
func OnLoadFailed(fn func(addr string, err error)) SurfaceOption {
	return func(s *Surface) {
		s.onFailed = fn
	}
}

// OnLoadStarted sets a hook fired when a navigation begins.
func OnLoadStarted(fn func(addr string)) SurfaceOption {
	return func(s *Surface) {
		s.onStarted = fn
	}
}

// Surface is one tab's browsing context. All methods are non-blocking; the page is fetched
// on a goroutine and the outcome handed to the dispatcher.
type Surface struct {
	loader   Loader
	dispatch Dispatcher
	log      *zap.Logger

	onFinished func(LoadFinished)
	onPage     func(*page.Page)
	onFailed   func(string, error)
	onStarted  func(string)

	mu      sync.Mutex
	url     string
	title   string
	current *page.Page
	entries []string
	index   int
	nav     uint64
	loading bool
	cancel  context.CancelFunc
	closed  bool
}

// NewSurface creates an empty surface showing about:blank.
func NewSurface(loader Loader, opts ...SurfaceOption) *Surface {
	s := &Surface{
		loader:   loader,
		dispatch: Immediate,
		log:      zap.NewNop(),
		url:      network.AboutBlank,
		index:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load navigates to addr, discarding any forward history. The page is always fetched
// again rather than served from the response cache.
func (s *Surface) Load(addr string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.index < len(s.entries)-1 {
		s.entries = s.entries[:s.index+1]
	}
	s.entries = append(s.entries, addr)
	s.index = len(s.entries) - 1
	s.mu.Unlock()

	s.start(addr, true)
}

// Back moves one step back in the session history. Back and Forward may be served
// from the response cache.
func (s *Surface) Back() {
	s.step(-1)
}

// Forward moves one step forward in the session history.
func (s *Surface) Forward() {
	s.step(1)
}

func (s *Surface) step(delta int) {
	s.mu.Lock()
	next := s.index + delta
	if s.closed || next < 0 || next >= len(s.entries) {
		s.mu.Unlock()
		return
	}
	s.index = next
	addr := s.entries[next]
	s.mu.Unlock()

	s.start(addr, false)
}

// Reload fetches the current entry again, bypassing the response cache.
func (s *Surface) Reload() {
	s.mu.Lock()
	if s.closed || s.index < 0 {
		s.mu.Unlock()
		return
	}
	addr := s.entries[s.index]
	s.mu.Unlock()

	s.start(addr, true)
}

// Stop abandons the navigation in flight, if any.
func (s *Surface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.nav++
	s.loading = false
}

// Close stops loading and turns every later call into a no-op.
func (s *Surface) Close() {
	s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// URL is the address of the current entry; while loading it is the requested address.
func (s *Surface) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Title is the title of the last successfully loaded page.
func (s *Surface) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Page is the last successfully loaded page, or nil.
func (s *Surface) Page() *page.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loading reports whether a navigation is in flight.
func (s *Surface) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CanGoBack reports whether Back would navigate.
func (s *Surface) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

// CanGoForward reports whether Forward would navigate.
func (s *Surface) CanGoForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= 0 && s.index < len(s.entries)-1
}

// start begins a navigation. A fresh navigation skips the response cache.
func (s *Surface) start(addr string, fresh bool) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.nav++
	nav := s.nav
	ctx, cancel := context.WithCancel(context.Background())
	if fresh {
		ctx = network.NoCache(ctx)
	}
	s.cancel = cancel
	s.url = addr
	s.loading = true
	started := s.onStarted
	s.mu.Unlock()

	if started != nil {
		started(addr)
	}

	go func() {
		p, err := s.loader.Load(ctx, addr)
		s.dispatch(func() {
			s.finish(nav, addr, p, err)
		})
	}()
}

// finish runs on the dispatcher. Results of superseded navigations are dropped.
func (s *Surface) finish(nav uint64, addr string, p *page.Page, err error) {
	s.mu.Lock()
	if nav != s.nav || s.closed {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.loading = false

	if err != nil {
		failed := s.onFailed
		s.mu.Unlock()
		s.log.Warn("page load failed", zap.String("url", addr), zap.Error(err))
		if failed != nil {
			failed(addr, err)
		}
		return
	}

	if p.URL == "" {
		p.URL = addr
	}
	s.current = p
	s.url = p.URL
	s.title = p.DisplayTitle()
	if s.index >= 0 && s.index < len(s.entries) {
		s.entries[s.index] = p.URL
	}
	evt := LoadFinished{URL: s.url, Title: s.title}
	onPage, onFinished := s.onPage, s.onFinished
	s.mu.Unlock()

	s.log.Debug("page loaded", zap.String("url", evt.URL), zap.String("title", evt.Title))
	if onPage != nil {
		onPage(p)
	}
	if onFinished != nil {
		onFinished(evt)
	}
}
