package ui

import (
	"image"

	"pixelcraft/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// BoardWidget shows the editor surface and turns mouse input into strokes.
type BoardWidget struct {
	widget.BaseWidget
	editor *state.Editor
	raster *canvas.Raster
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(e *state.Editor) *BoardWidget {
	b := &BoardWidget{editor: e}
	b.raster = canvas.NewRaster(func(_, _ int) image.Image {
		return e.Display()
	})
	b.raster.ScaleMode = canvas.ImageScalePixels
	w, h := e.Size()
	b.raster.SetMinSize(fyne.NewSize(float32(w), float32(h)))
	b.ExtendBaseWidget(b)

	// imports finish off the main goroutine
	e.OnChange(func() { fyne.Do(b.Refresh) })
	return b
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.raster)
}

// toCanvas maps a widget position to surface pixels; the raster is
// stretched over the whole widget.
func (b *BoardWidget) toCanvas(pos fyne.Position) state.Point {
	w, h := b.editor.Size()
	size := b.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return state.Point{X: float64(pos.X), Y: float64(pos.Y)}
	}
	return state.Point{
		X: float64(pos.X) * float64(w) / float64(size.Width),
		Y: float64(pos.Y) * float64(h) / float64(size.Height),
	}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.editor.BeginStroke(b.toCanvas(e.Position))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.editor.EndStroke()
	}
}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.editor.ContinueStroke(b.toCanvas(e.Position))
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.editor.ContinueStroke(b.toCanvas(e.Position))
}

func (b *BoardWidget) DragEnd() {
	b.editor.EndStroke()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

// MouseOut is pointer-leave: the stroke ends.
func (b *BoardWidget) MouseOut() {
	b.editor.EndStroke()
}
