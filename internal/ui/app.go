package ui

import (
	"log"

	"pixelcraft/internal/export"
	"pixelcraft/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
)

type Config struct {
	Canvas    state.Config
	Downloads string
}

// dialogConfirmer shows the clear prompt as a modal dialog.
type dialogConfirmer struct {
	window fyne.Window
}

func (c dialogConfirmer) Confirm(prompt string, answer func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm("Clear canvas", prompt, answer, c.window)
	})
}

// NewEditorWindow builds the editor and its window on a.
func NewEditorWindow(a fyne.App, cfg Config) (fyne.Window, *state.Editor, error) {
	w := a.NewWindow("PixelCraft")

	editor, err := state.New(cfg.Canvas, state.Services{
		Encoder:    export.PNG{},
		Decoder:    export.PNG{},
		Downloader: export.Dir{Path: cfg.Downloads},
		Confirmer:  dialogConfirmer{window: w},
	})
	if err != nil {
		return nil, nil, err
	}

	board := NewBoardWidget(editor)
	tb := newToolbar(editor, w)
	w.SetContent(container.NewBorder(tb.object(), nil, nil, nil, container.NewCenter(board)))
	w.Resize(fyne.NewSize(float32(cfg.Canvas.Width)+40, float32(cfg.Canvas.Height)+120))
	return w, editor, nil
}

func RunApp(cfg Config) error {
	myApp := app.NewWithID("io.pixelcraft.editor")
	w, editor, err := NewEditorWindow(myApp, cfg)
	if err != nil {
		return err
	}
	log.Printf("[UI] editor %s ready, saving to %q", editor.ID(), cfg.Downloads)
	w.ShowAndRun()
	return nil
}
