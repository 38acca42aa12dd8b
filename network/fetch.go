package network

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Resource is a fetched document ready for parsing.
type Resource struct {
	URL         string // final URL after redirects
	ContentType string // media type without parameters
	Charset     string // declared charset, if any
	Body        []byte
	Cached      bool
}

// StatusError reports an HTTP response outside the 2xx/3xx range.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}

type noCacheKey struct{}

// NoCache marks ctx so fetches skip cached responses. The fresh response is still stored.
func NoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

func skipCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey{}).(bool)
	return v
}

// Fetcher loads documents by address.
type Fetcher struct {
	client *Client
	cache  *Cache
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithCache replaces the default response cache. A nil cache disables caching.
func WithCache(cache *Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// NewFetcher creates a Fetcher backed by client.
func NewFetcher(client *Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: client,
		cache:  NewCache(256),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads addr. Addresses without a scheme are treated as http.
func (f *Fetcher) Fetch(ctx context.Context, addr string) (*Resource, error) {
	addr = Fixup(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}

	lower := strings.ToLower(addr)
	switch {
	case lower == AboutBlank:
		return &Resource{URL: AboutBlank, ContentType: "text/html", Charset: "utf-8"}, nil
	case strings.HasPrefix(lower, "data:"):
		return f.fetchData(addr)
	case strings.HasPrefix(lower, "file://"):
		return f.fetchFile(addr)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.fetchHTTP(ctx, addr)
	}

	return nil, fmt.Errorf("unsupported scheme in %q", addr)
}

func (f *Fetcher) fetchData(addr string) (*Resource, error) {
	d, err := ParseDataURL(addr)
	if err != nil {
		return nil, err
	}
	return &Resource{
		URL:         addr,
		ContentType: d.MediaType,
		Charset:     d.Charset,
		Body:        d.Data,
	}, nil
}

func (f *Fetcher) fetchFile(addr string) (*Resource, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL: %w", err)
	}
	body, err := os.ReadFile(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u.Path, err)
	}
	mediaType, charset := ParseContentType(mimetype.Detect(body).String())
	return &Resource{
		URL:         u.String(),
		ContentType: mediaType,
		Charset:     charset,
		Body:        body,
	}, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, addr string) (*Resource, error) {
	if f.cache != nil && !skipCache(ctx) {
		if resp, ok := f.cache.Get(addr); ok {
			res := toResource(resp)
			res.Cached = true
			return res, nil
		}
	}

	resp, err := f.client.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{URL: addr, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if f.cache != nil {
		f.cache.Set(addr, resp)
	}
	return toResource(resp), nil
}

func toResource(resp *Response) *Resource {
	mediaType, charset := ParseContentType(resp.ContentType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		detected, detectedCharset := ParseContentType(mimetype.Detect(resp.Body).String())
		mediaType = detected
		if charset == "" {
			charset = detectedCharset
		}
	}

	final := ""
	if resp.URL != nil {
		final = resp.URL.String()
	}
	return &Resource{
		URL:         final,
		ContentType: mediaType,
		Charset:     charset,
		Body:        resp.Body,
	}
}
