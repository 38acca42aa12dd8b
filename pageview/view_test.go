package pageview

import (
	"errors"
	"image"
	"testing"

	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisuehlinger/tabshell/page"
)

func TestSegments(t *testing.T) {
	p := &page.Page{Blocks: []page.Block{
		{Kind: page.Heading, Level: 1, Inlines: []page.Inline{{Text: "Title"}}},
		{Kind: page.Heading, Level: 3, Inlines: []page.Inline{{Text: "Section"}}},
		{Kind: page.Paragraph, Inlines: []page.Inline{{Text: "Read "}, {Text: "more", Href: "https://example.com/more"}}},
		{Kind: page.ListItem, Inlines: []page.Inline{{Text: "one"}}},
		{Kind: page.ListItem, Inlines: []page.Inline{{Text: "two"}}},
		{Kind: page.Rule},
		{Kind: page.Preformatted, Inlines: []page.Inline{{Text: "x := 1"}}},
		{Kind: page.Quote, Inlines: []page.Inline{{Text: "quoted"}}},
		{Kind: page.Paragraph, Inlines: []page.Inline{{Text: "end"}}},
	}}

	segs := Segments(p, nil)
	require.Len(t, segs, 10)

	assert.Equal(t, widget.RichTextStyleHeading, segs[0].(*widget.TextSegment).Style)
	assert.Equal(t, widget.RichTextStyleSubHeading, segs[1].(*widget.TextSegment).Style)

	assert.Equal(t, "Read ", segs[2].(*widget.TextSegment).Text)
	link := segs[3].(*widget.HyperlinkSegment)
	assert.Equal(t, "https://example.com/more", link.URL.String())
	assert.Nil(t, link.OnTapped)
	assert.Equal(t, widget.RichTextStyleParagraph, segs[4].(*widget.TextSegment).Style)

	list := segs[5].(*widget.ListSegment)
	assert.Len(t, list.Items, 2, "consecutive items share one list")

	assert.IsType(t, &widget.SeparatorSegment{}, segs[6])
	assert.Equal(t, widget.RichTextStyleCodeBlock, segs[7].(*widget.TextSegment).Style)
	assert.Equal(t, widget.RichTextStyleBlockquote, segs[8].(*widget.TextSegment).Style)

	last := segs[9].(*widget.TextSegment)
	assert.Equal(t, "end", last.Text)
	assert.Equal(t, widget.RichTextStyleParagraph, last.Style)
}

func TestLinksNavigateInPlace(t *testing.T) {
	var visited []string
	p := &page.Page{Blocks: []page.Block{
		{Kind: page.Paragraph, Inlines: []page.Inline{{Text: "next", Href: "https://example.com/2"}}},
	}}

	segs := Segments(p, func(addr string) { visited = append(visited, addr) })
	link := segs[0].(*widget.HyperlinkSegment)
	require.NotNil(t, link.OnTapped)
	link.OnTapped()
	assert.Equal(t, []string{"https://example.com/2"}, visited)
}

func TestSeparateListsStaySeparate(t *testing.T) {
	p := &page.Page{Blocks: []page.Block{
		{Kind: page.ListItem, Inlines: []page.Inline{{Text: "a"}}},
		{Kind: page.Paragraph, Inlines: []page.Inline{{Text: "between"}}},
		{Kind: page.ListItem, Inlines: []page.Inline{{Text: "b"}}},
	}}
	segs := Segments(p, nil)
	require.Len(t, segs, 3)
	assert.IsType(t, &widget.ListSegment{}, segs[0])
	assert.IsType(t, &widget.ListSegment{}, segs[2])
}

func TestRender(t *testing.T) {
	test.NewApp()

	img := Render(&page.Page{Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}, nil)
	scroll, ok := img.(*container.Scroll)
	require.True(t, ok)
	assert.IsType(t, &canvas.Image{}, scroll.Content)

	text := Render(&page.Page{Blocks: []page.Block{{Inlines: []page.Inline{{Text: "hi"}}}}}, nil)
	scroll, ok = text.(*container.Scroll)
	require.True(t, ok)
	rt, ok := scroll.Content.(*widget.RichText)
	require.True(t, ok)
	assert.Equal(t, "hi", rt.String())

	assert.NotNil(t, Render(nil, nil))
}

func TestErrorView(t *testing.T) {
	test.NewApp()
	view := ErrorView("https://broken.example", errors.New("connection refused"))

	var texts []string
	for _, o := range test.LaidOutObjects(view) {
		if l, ok := o.(*widget.Label); ok {
			texts = append(texts, l.Text)
		}
	}
	assert.Contains(t, texts, "Error")
	assert.Contains(t, texts, "Failed to load https://broken.example: connection refused")
}
