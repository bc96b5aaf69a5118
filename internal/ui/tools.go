package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"RevealBoard/internal/geom"
)

// colorSwatch shows the color of the most recent stroke.
type colorSwatch struct {
	widget.BaseWidget
	rect *canvas.Rectangle
}

func newColorSwatch(c color.Color) *colorSwatch {
	s := &colorSwatch{rect: canvas.NewRectangle(c)}
	s.rect.SetMinSize(fyne.NewSize(24, 24))
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) SetColor(c geom.Color) {
	s.rect.FillColor = c
	s.rect.Refresh()
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1
	return widget.NewSimpleRenderer(container.NewStack(s.rect, border))
}

type toolbarActions struct {
	Restart      func()
	SavePNG      func()
	ExportPDF    func()
	ExportVector func()
}

func newToolbar(actions toolbarActions, status *widget.Label, swatch *colorSwatch, share string) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaReplayIcon(), actions.Restart),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), actions.SavePNG),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), actions.ExportPDF),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), actions.ExportVector),
	)

	objects := []fyne.CanvasObject{tb, widget.NewSeparator(), swatch, status, layout.NewSpacer()}
	if share != "" {
		link := widget.NewLabel("Viewer: " + share)
		link.TextStyle = fyne.TextStyle{Monospace: true}
		objects = append(objects, link)
	}
	return container.NewHBox(objects...)
}
