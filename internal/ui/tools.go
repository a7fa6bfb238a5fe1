package ui

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"pixelcraft/internal/export"
	"pixelcraft/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Swatches are the preset brush colors.
var Swatches = []color.RGBA{
	state.Black,
	{R: 255, A: 255},
	{G: 160, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 220, A: 255},
	state.White,
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// toolbar holds the controls that drive one editor.
type toolbar struct {
	editor  *state.Editor
	window  fyne.Window
	tools   map[state.Tool]*widget.Button
	current *canvas.Rectangle
	status  *widget.Label
}

func newToolbar(e *state.Editor, w fyne.Window) *toolbar {
	t := &toolbar{
		editor:  e,
		window:  w,
		tools:   make(map[state.Tool]*widget.Button),
		current: canvas.NewRectangle(e.Color()),
		status:  widget.NewLabel("Ready"),
	}
	t.tools[state.ToolPencil] = widget.NewButtonWithIcon("Pencil", theme.DocumentCreateIcon(), func() {
		t.selectTool(state.ToolPencil)
	})
	t.tools[state.ToolEraser] = widget.NewButtonWithIcon("Eraser", theme.ContentClearIcon(), func() {
		t.selectTool(state.ToolEraser)
	})
	t.tools[state.ToolToggleGrid] = widget.NewButtonWithIcon("Grid", theme.GridIcon(), func() {
		t.selectTool(state.ToolToggleGrid)
	})
	t.tools[state.ToolClear] = widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), func() {
		t.selectTool(state.ToolClear)
	})
	t.highlight()
	e.OnStatus(t.setStatus)
	return t
}

// selectTool forwards to the editor and re-highlights so that exactly one
// of pencil and eraser is shown as active.
func (t *toolbar) selectTool(tool state.Tool) {
	t.editor.SelectTool(tool)
	t.highlight()
}

func (t *toolbar) highlight() {
	active := t.editor.Tool()
	for tool, btn := range t.tools {
		imp := widget.MediumImportance
		if tool == active {
			imp = widget.HighImportance
		}
		if btn.Importance != imp {
			btn.Importance = imp
			btn.Refresh()
		}
	}
}

func (t *toolbar) setColor(c color.Color) {
	t.editor.SetColor(c)
	t.current.FillColor = t.editor.Color()
	t.current.Refresh()
}

func (t *toolbar) setStatus(text string) {
	fyne.Do(func() { t.status.SetText(text) })
}

func (t *toolbar) pickColor() {
	picker := dialog.NewColorPicker("Brush color", "Pick a brush color", t.setColor, t.window)
	picker.Advanced = true
	picker.SetColor(t.editor.Color())
	picker.Show()
}

func (t *toolbar) save(enc state.Encoder) {
	name, err := t.editor.ExportWith(enc)
	if err != nil {
		log.Printf("[UI] export failed: %v", err)
		t.setStatus("Export failed")
		return
	}
	t.setStatus("Saved " + name)
}

func (t *toolbar) open() {
	dlg := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			log.Printf("[UI] read %s: %v", reader.URI(), err)
			t.setStatus("Error reading file")
			return
		}
		t.setStatus("Loading...")
		go t.load(data)
	}, t.window)
	dlg.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp"}))
	dlg.Show()
}

func (t *toolbar) load(data []byte) {
	if err := t.editor.ImportImage(data); err != nil {
		log.Printf("[UI] load failed: %v", err)
		t.setStatus("Could not load image")
		return
	}
	t.setStatus(fmt.Sprintf("Loaded %d bytes", len(data)))
}

func (t *toolbar) object() fyne.CanvasObject {
	swatches := container.NewHBox()
	for _, c := range Swatches {
		swatches.Add(newColorSwatch(c, t.setColor))
	}
	t.current.SetMinSize(fyne.NewSize(28, 28))

	sizeLabel := widget.NewLabel(fmt.Sprintf("%d px", t.editor.BrushSize()))
	slider := widget.NewSlider(1, state.MaxBrushSize)
	slider.SetValue(float64(t.editor.BrushSize()))
	slider.OnChanged = func(v float64) {
		t.editor.SetBrushSize(int(v))
		sizeLabel.SetText(fmt.Sprintf("%d px", t.editor.BrushSize()))
	}
	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), slider)

	files := container.NewHBox(
		widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() { t.save(export.PNG{}) }),
		widget.NewButtonWithIcon("PDF", theme.DocumentPrintIcon(), func() { t.save(export.PDF{Title: "PixelCraft"}) }),
		widget.NewButtonWithIcon("Load", theme.FolderOpenIcon(), t.open),
	)

	tools := container.NewHBox(
		t.tools[state.ToolPencil],
		t.tools[state.ToolEraser],
		t.tools[state.ToolToggleGrid],
		t.tools[state.ToolClear],
	)

	return container.NewVBox(
		container.NewHBox(
			widget.NewLabel("Tool:"), tools,
			widget.NewSeparator(),
			widget.NewLabel("Color:"), t.current, swatches,
			widget.NewButtonWithIcon("", theme.ColorPaletteIcon(), t.pickColor),
			widget.NewSeparator(),
			widget.NewLabel("Size:"), sliderBox, sizeLabel,
			layout.NewSpacer(),
			files,
		),
		t.status,
	)
}
