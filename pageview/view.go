// Package pageview renders parsed pages as Fyne content.
package pageview

import (
	"fmt"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/chrisuehlinger/tabshell/page"
)

// Navigate is called with the absolute address of a tapped link.
type Navigate func(addr string)

// Render returns a scrollable view of p. Links call navigate instead of leaving the tab.
func Render(p *page.Page, navigate Navigate) fyne.CanvasObject {
	if p == nil {
		return Blank()
	}
	if p.Image != nil {
		img := canvas.NewImageFromImage(p.Image)
		img.FillMode = canvas.ImageFillOriginal
		img.ScaleMode = canvas.ImageScalePixels
		return container.NewScroll(img)
	}

	text := widget.NewRichText(Segments(p, navigate)...)
	text.Wrapping = fyne.TextWrapWord
	return container.NewVScroll(text)
}

// Segments converts the blocks of p to rich text segments.
func Segments(p *page.Page, navigate Navigate) []widget.RichTextSegment {
	var segs []widget.RichTextSegment
	var list *widget.ListSegment

	for _, b := range p.Blocks {
		if b.Kind != page.ListItem {
			list = nil
		}

		switch b.Kind {
		case page.Heading:
			style := widget.RichTextStyleSubHeading
			if b.Level <= 1 {
				style = widget.RichTextStyleHeading
			}
			segs = append(segs, &widget.TextSegment{Style: style, Text: b.Text()})
		case page.ListItem:
			if list == nil {
				list = &widget.ListSegment{}
				segs = append(segs, list)
			}
			list.Items = append(list.Items, &widget.ParagraphSegment{Texts: inlines(b.Inlines, navigate)})
		case page.Preformatted:
			segs = append(segs, &widget.TextSegment{Style: widget.RichTextStyleCodeBlock, Text: b.Text()})
		case page.Quote:
			segs = append(segs, &widget.TextSegment{Style: widget.RichTextStyleBlockquote, Text: b.Text()})
		case page.Rule:
			segs = append(segs, &widget.SeparatorSegment{})
		default:
			segs = append(segs, paragraph(b.Inlines, navigate)...)
		}
	}
	return segs
}

// paragraph renders inline runs followed by a paragraph break.
func paragraph(runs []page.Inline, navigate Navigate) []widget.RichTextSegment {
	segs := inlines(runs, navigate)
	if n := len(segs); n > 0 {
		if t, ok := segs[n-1].(*widget.TextSegment); ok {
			t.Style = widget.RichTextStyleParagraph
			return segs
		}
	}
	return append(segs, &widget.TextSegment{Style: widget.RichTextStyleParagraph})
}

func inlines(runs []page.Inline, navigate Navigate) []widget.RichTextSegment {
	segs := make([]widget.RichTextSegment, 0, len(runs))
	for _, in := range runs {
		if in.Href == "" {
			segs = append(segs, &widget.TextSegment{Style: widget.RichTextStyleInline, Text: in.Text})
			continue
		}
		segs = append(segs, link(in, navigate))
	}
	return segs
}

func link(in page.Inline, navigate Navigate) widget.RichTextSegment {
	u, err := url.Parse(in.Href)
	if err != nil {
		return &widget.TextSegment{Style: widget.RichTextStyleInline, Text: in.Text}
	}
	seg := &widget.HyperlinkSegment{Text: in.Text, URL: u}
	if navigate != nil {
		href := in.Href
		seg.OnTapped = func() { navigate(href) }
	}
	return seg
}

// Blank is the view of a tab that has not loaded anything yet.
func Blank() fyne.CanvasObject {
	return container.NewStack()
}

// Loading is shown while a tab's first page is on its way.
func Loading() fyne.CanvasObject {
	l := widget.NewLabel("Loading...")
	l.Alignment = fyne.TextAlignCenter
	return container.NewCenter(l)
}

// ErrorView describes a failed load.
func ErrorView(addr string, err error) fyne.CanvasObject {
	heading := widget.NewLabelWithStyle("Error", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	msg := widget.NewLabel(fmt.Sprintf("Failed to load %s: %v", addr, err))
	msg.Wrapping = fyne.TextWrapWord
	msg.Alignment = fyne.TextAlignCenter

	return container.NewCenter(container.NewVBox(heading, msg))
}
