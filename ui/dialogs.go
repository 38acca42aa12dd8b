package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/chrisuehlinger/tabshell/apptheme"
	"github.com/chrisuehlinger/tabshell/store"
)

var listDialogSize = fyne.NewSize(400, 300)

// historyLabel formats one history row for display.
func historyLabel(e store.HistoryEntry) string {
	return fmt.Sprintf("%s - %s", e.Title, e.URL)
}

func bookmarkLabel(b store.Bookmark) string {
	return fmt.Sprintf("%s - %s", b.Title, b.URL)
}

// ShowHistory implements browser.Dialogs.
func (b *BrowserUI) ShowHistory(entries []store.HistoryEntry) {
	list := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			e := entries[id]
			o.(*widget.Label).SetText(historyLabel(e))
		},
	)

	d := dialog.NewCustom("History", "Close", list, b.window)
	d.Resize(listDialogSize)
	d.Show()
}

// ShowBookmarks implements browser.Dialogs. Selecting a row opens it and closes the dialog.
func (b *BrowserUI) ShowBookmarks(marks []store.Bookmark, open func(store.Bookmark)) {
	list := widget.NewList(
		func() int { return len(marks) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(bookmarkLabel(marks[id]))
		},
	)

	d := dialog.NewCustom("Bookmarks", "Close", list, b.window)
	list.OnSelected = func(id widget.ListItemID) {
		d.Hide()
		open(marks[id])
	}
	d.Resize(listDialogSize)
	d.Show()
}

// colourField is a swatch with a button that opens a colour picker.
type colourField struct {
	value  string
	swatch *canvas.Rectangle
	button *widget.Button
}

func (b *BrowserUI) newColourField(title, value string) *colourField {
	f := &colourField{value: value, swatch: canvas.NewRectangle(color.Transparent)}
	f.swatch.SetMinSize(fyne.NewSize(24, 24))
	f.set(value)

	f.button = widget.NewButton("Change...", func() {
		picker := dialog.NewColorPicker(title, "", func(c color.Color) {
			f.set(apptheme.Hex(c))
		}, b.window)
		picker.Advanced = true
		if c, err := apptheme.ParseHex(f.value); err == nil {
			picker.SetColor(c)
		}
		picker.Show()
	})
	return f
}

func (f *colourField) set(value string) {
	f.value = value
	if c, err := apptheme.ParseHex(value); err == nil {
		f.swatch.FillColor = c
	} else {
		f.swatch.FillColor = color.Transparent
	}
	f.swatch.Refresh()
}

func (f *colourField) row() fyne.CanvasObject {
	return container.NewHBox(f.swatch, f.button)
}

// ShowCustomize implements browser.Dialogs.
func (b *BrowserUI) ShowCustomize(current store.Customization, save func(store.Customization)) {
	bg := b.newColourField("Background colour", current.Background)
	text := b.newColourField("Text colour", current.Text)

	form := widget.NewForm(
		widget.NewFormItem("Background", bg.row()),
		widget.NewFormItem("Text", text.row()),
	)

	d := dialog.NewCustomConfirm("Customize Browser", "Save", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		save(store.Customization{Background: bg.value, Text: text.value})
	}, b.window)
	d.Resize(fyne.NewSize(300, 200))
	d.Show()
}

// ShowInfo implements browser.Dialogs.
func (b *BrowserUI) ShowInfo(title, message string) {
	dialog.ShowInformation(title, message, b.window)
}

// ShowError implements browser.Dialogs.
func (b *BrowserUI) ShowError(err error) {
	dialog.ShowError(err, b.window)
}
