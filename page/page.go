// Package page turns fetched resources into a readable document model: a title, a list
// of text blocks with inline links, the inline scripts of the page, or a decoded image.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/chrisuehlinger/tabshell/network"
)

// ErrUnsupportedContent is returned for media types the shell cannot display.
var ErrUnsupportedContent = errors.New("unsupported content type")

// BlockKind identifies how a block is displayed.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	ListItem
	Preformatted
	Quote
	Rule
)

// Inline is a run of text, optionally linking to Href.
type Inline struct {
	Text string
	Href string
}

// Block is one displayable unit of a page.
type Block struct {
	Kind    BlockKind
	Level   int // heading level 1-6
	Inlines []Inline
}

// Text concatenates the block's inline runs.
func (b Block) Text() string {
	var sb strings.Builder
	for _, in := range b.Inlines {
		sb.WriteString(in.Text)
	}
	return sb.String()
}

// Page is a parsed document.
type Page struct {
	URL         string
	Title       string
	ContentType string
	Blocks      []Block
	Scripts     []string
	Image       image.Image
}

// DisplayTitle is the title shown for the page: its own title, or its URL.
func (p *Page) DisplayTitle() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return p.URL
}

// Parse builds a Page from a fetched resource.
func Parse(res *network.Resource) (*Page, error) {
	p := &Page{URL: res.URL, ContentType: res.ContentType}

	switch {
	case res.ContentType == "text/html", res.ContentType == "application/xhtml+xml":
		base, _ := url.Parse(res.URL)
		if err := parseHTML(p, base, res.Body, res.Charset); err != nil {
			return nil, err
		}
	case strings.HasPrefix(res.ContentType, "text/"):
		body, err := decode(res.Body, res.Charset)
		if err != nil {
			return nil, err
		}
		p.Blocks = []Block{{Kind: Preformatted, Inlines: []Inline{{Text: string(body)}}}}
	case strings.HasPrefix(res.ContentType, "image/"):
		img, _, err := image.Decode(bytes.NewReader(res.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		p.Image = img
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, res.ContentType)
	}

	return p, nil
}
