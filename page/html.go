package page

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/chrisuehlinger/tabshell/network"
)

// hidden lists elements whose content never reaches the page body.
const hidden = "head, script, style, noscript, template, iframe, object, svg, canvas"

func parseHTML(p *Page, base *url.URL, body []byte, declared string) error {
	if declared == "" {
		// windows-1252 is also the prescan fallback, so leave that case to detection.
		if _, name, _ := charset.DetermineEncoding(body, "text/html"); name != "windows-1252" {
			declared = name
		}
	}
	decoded, err := decode(body, declared)
	if err != nil {
		return err
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	p.Title = collapse(doc.Find("title").First().Text())

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved, err := url.Parse(network.Resolve(base, href)); err == nil && resolved.String() != "" {
			base = resolved
		}
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		if typ, ok := s.Attr("type"); ok && !isJavaScriptType(typ) {
			return
		}
		if src := s.Text(); strings.TrimSpace(src) != "" {
			p.Scripts = append(p.Scripts, src)
		}
	})

	doc.Find(hidden).Remove()

	start := root
	if body := doc.Find("body"); body.Length() > 0 {
		start = body.Nodes[0]
	}

	b := &blockBuilder{base: base}
	b.walk(start)
	b.flush()
	p.Blocks = b.blocks

	return nil
}

// decode converts body from the named charset to UTF-8. Without a name the charset is
// guessed.
func decode(body []byte, name string) ([]byte, error) {
	if name == "" {
		name = detectCharset(body)
	}
	name = strings.ToLower(name)
	if name == "utf-8" || name == "utf8" {
		return body, nil
	}

	r, err := charset.NewReaderLabel(name, bytes.NewReader(body))
	if err != nil {
		// Unknown label: show the bytes as they are.
		return body, nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return out, nil
}

func detectCharset(body []byte) string {
	if utf8.Valid(body) {
		return "utf-8"
	}
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil {
		return "windows-1252"
	}
	return strings.ToLower(result.Charset)
}

func isJavaScriptType(typ string) bool {
	typ, _ = network.ParseContentType(typ)
	switch typ {
	case "", "text/javascript", "application/javascript", "application/x-javascript", "text/ecmascript", "application/ecmascript":
		return true
	}
	return false
}

// collapse folds runs of whitespace into single spaces and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// blockBuilder flattens a DOM subtree into blocks. Text is buffered until a block
// boundary, then emitted with the kind of the innermost enclosing block element.
type blockBuilder struct {
	base   *url.URL
	blocks []Block

	kind  BlockKind
	level int
	href  string
	cur   []Inline
}

func (b *blockBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.text(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.walk(c)
		}
		return
	}

	switch n.DataAtom {
	case atom.Br:
		b.text("\n")
		return
	case atom.Hr:
		b.flush()
		b.blocks = append(b.blocks, Block{Kind: Rule})
		return
	case atom.Pre:
		b.flush()
		if text := textContent(n); strings.TrimSpace(text) != "" {
			b.blocks = append(b.blocks, Block{Kind: Preformatted, Inlines: []Inline{{Text: strings.Trim(text, "\n")}}})
		}
		return
	case atom.A:
		prev := b.href
		if href, ok := attr(n, "href"); ok {
			b.href = network.Resolve(b.base, href)
		}
		b.children(n)
		b.href = prev
		return
	}

	kind, level, isBlock := blockKindOf(n.DataAtom)
	if !isBlock {
		b.children(n)
		return
	}

	// A plain container inside a list item or quote keeps the outer kind.
	if kind == Paragraph && b.kind != Paragraph {
		kind, level = b.kind, b.level
	}

	b.flush()
	prevKind, prevLevel := b.kind, b.level
	b.kind, b.level = kind, level
	b.children(n)
	b.flush()
	b.kind, b.level = prevKind, prevLevel
}

func (b *blockBuilder) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func (b *blockBuilder) text(s string) {
	if s == "\n" {
		b.appendInline("\n")
		return
	}
	if s == "" {
		return
	}
	folded := collapse(s)
	leading := strings.TrimLeftFunc(s, isSpace) != s
	trailing := strings.TrimRightFunc(s, isSpace) != s
	if folded == "" {
		if leading {
			b.appendInline(" ")
		}
		return
	}
	if leading {
		folded = " " + folded
	}
	if trailing {
		folded += " "
	}
	b.appendInline(folded)
}

func (b *blockBuilder) appendInline(s string) {
	if n := len(b.cur); n > 0 && b.cur[n-1].Href == b.href {
		last := b.cur[n-1].Text
		if strings.HasSuffix(last, " ") || strings.HasSuffix(last, "\n") {
			s = strings.TrimLeft(s, " ")
		}
		b.cur[n-1].Text = last + s
		return
	}
	if n := len(b.cur); n > 0 && (strings.HasSuffix(b.cur[n-1].Text, " ") || strings.HasSuffix(b.cur[n-1].Text, "\n")) {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return
		}
	}
	b.cur = append(b.cur, Inline{Text: s, Href: b.href})
}

// flush emits the buffered inline runs as one block.
func (b *blockBuilder) flush() {
	inlines := b.cur
	b.cur = nil

	for len(inlines) > 0 {
		inlines[0].Text = strings.TrimLeft(inlines[0].Text, " \n")
		if inlines[0].Text != "" {
			break
		}
		inlines = inlines[1:]
	}
	for len(inlines) > 0 {
		last := len(inlines) - 1
		inlines[last].Text = strings.TrimRight(inlines[last].Text, " \n")
		if inlines[last].Text != "" {
			break
		}
		inlines = inlines[:last]
	}
	if len(inlines) == 0 {
		return
	}

	b.blocks = append(b.blocks, Block{Kind: b.kind, Level: b.level, Inlines: inlines})
}

func blockKindOf(a atom.Atom) (BlockKind, int, bool) {
	switch a {
	case atom.H1:
		return Heading, 1, true
	case atom.H2:
		return Heading, 2, true
	case atom.H3:
		return Heading, 3, true
	case atom.H4:
		return Heading, 4, true
	case atom.H5:
		return Heading, 5, true
	case atom.H6:
		return Heading, 6, true
	case atom.Li, atom.Dt, atom.Dd:
		return ListItem, 0, true
	case atom.Blockquote:
		return Quote, 0, true
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer,
		atom.Nav, atom.Aside, atom.Ul, atom.Ol, atom.Dl, atom.Table, atom.Tr, atom.Td, atom.Th,
		atom.Form, atom.Fieldset, atom.Figure, atom.Figcaption, atom.Address, atom.Details,
		atom.Summary, atom.Caption, atom.Body:
		return Paragraph, 0, true
	}
	return 0, 0, false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}
