package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// RevealWidget shows the engine's visible surface and reports its size,
// in whole layout units, whenever the layout changes it.
type RevealWidget struct {
	widget.BaseWidget

	frame    image.Image
	raster   *canvas.Raster
	cover    *canvas.Rectangle
	lastW    int
	lastH    int
	OnResize func(width, height int)
}

var _ fyne.Widget = (*RevealWidget)(nil)

// NewRevealWidget returns a widget whose surface stays covered with
// background until Reveal is called.
func NewRevealWidget(background color.Color) *RevealWidget {
	r := &RevealWidget{cover: canvas.NewRectangle(background)}
	r.raster = canvas.NewRaster(func(w, h int) image.Image {
		if r.frame == nil {
			return image.NewRGBA(image.Rect(0, 0, w, h))
		}
		return r.frame
	})
	r.raster.ScaleMode = canvas.ImageScaleSmooth
	r.ExtendBaseWidget(r)
	return r
}

func (r *RevealWidget) Reveal() {
	r.cover.Hide()
	r.Refresh()
}

func (r *RevealWidget) Revealed() bool { return !r.cover.Visible() }

// SetFrame replaces the displayed image. Call from the UI goroutine.
func (r *RevealWidget) SetFrame(img image.Image) {
	r.frame = img
	r.raster.Refresh()
}

func (r *RevealWidget) resized(size fyne.Size) {
	w, h := int(size.Width), int(size.Height)
	if w <= 0 || h <= 0 || (w == r.lastW && h == r.lastH) {
		return
	}
	r.lastW, r.lastH = w, h
	if r.OnResize != nil {
		r.OnResize(w, h)
	}
}

func (r *RevealWidget) CreateRenderer() fyne.WidgetRenderer {
	return &revealWidgetRenderer{widget: r}
}

type revealWidgetRenderer struct {
	widget *RevealWidget
}

func (r *revealWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.widget.raster, r.widget.cover}
}

func (r *revealWidgetRenderer) Layout(size fyne.Size) {
	r.widget.raster.Resize(size)
	r.widget.cover.Resize(size)
	r.widget.resized(size)
}

func (r *revealWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *revealWidgetRenderer) Refresh() {
	canvas.Refresh(r.widget.raster)
	canvas.Refresh(r.widget.cover)
}

func (r *revealWidgetRenderer) Destroy() {}
