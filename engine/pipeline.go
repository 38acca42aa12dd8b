// Package engine provides the navigation surface behind each tab: asynchronous page
// loads, a session history for back/forward, and a one-shot notification when a load
// finishes.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/network"
	"github.com/chrisuehlinger/tabshell/page"
	"github.com/chrisuehlinger/tabshell/script"
)

// Loader turns an address into a page. Implementations must honour ctx.
type Loader interface {
	Load(ctx context.Context, addr string) (*page.Page, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, addr string) (*page.Page, error)

func (f LoaderFunc) Load(ctx context.Context, addr string) (*page.Page, error) {
	return f(ctx, addr)
}

// Pipeline is the default Loader: fetch, parse, then let inline scripts settle the title.
type Pipeline struct {
	Fetcher       *network.Fetcher
	Scripts       bool
	ScriptTimeout time.Duration
	Logger        *zap.Logger
}

// Load implements Loader.
func (p *Pipeline) Load(ctx context.Context, addr string) (*page.Page, error) {
	res, err := p.Fetcher.Fetch(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pg, err := page.Parse(res)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", res.URL, err)
	}

	if p.Scripts && len(pg.Scripts) > 0 {
		pg.Title = script.ResolveTitle(pg.Title, pg.Scripts, script.Options{
			Timeout: p.ScriptTimeout,
			Logger:  p.Logger,
		})
	}
	return pg, nil
}
