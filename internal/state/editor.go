package state

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"sync"
)

// Encoder turns the flattened surface into file bytes.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	Ext() string
}

// Decoder sniffs and decodes an encoded image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// Downloader delivers exported bytes to the user.
type Downloader interface {
	Download(data []byte, filename string) error
}

// Confirmer asks the user a yes/no question. answer must be called exactly
// once, either before Confirm returns or later from any goroutine.
type Confirmer interface {
	Confirm(prompt string, answer func(bool))
}

// Services are the platform collaborators the editor calls into.
type Services struct {
	Encoder    Encoder
	Decoder    Decoder
	Downloader Downloader
	Confirmer  Confirmer
	Clock      Clock
}

const (
	ClearPrompt  = "Clear the whole canvas? This cannot be undone."
	ClearSkipped = "Canvas not cleared: an image is still loading"
)

// Editor owns the drawing surface and all tool and session state.
// It is safe to call from multiple goroutines; calls are serialized.
type Editor struct {
	id     string
	svc    Services
	stamps *stamper

	mu       sync.Mutex
	surface  *image.RGBA
	overlay  *image.RGBA
	tool     Tool
	brush    Brush
	grid     bool
	drawing  bool
	last     *Point
	stroking policy // captured at BeginStroke
	pending  bool   // import in flight
	onChange func()
	onStatus func(string)
}

// New creates an editor with a white surface, the pencil selected, the grid
// hidden, a black brush of size 2.
func New(cfg Config, svc Services) (*Editor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if svc.Encoder == nil || svc.Decoder == nil || svc.Downloader == nil || svc.Confirmer == nil {
		return nil, errors.New("editor needs an encoder, decoder, downloader and confirmer")
	}
	if svc.Clock == nil {
		svc.Clock = systemClock{}
	}

	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	e := &Editor{
		id:      newSessionID(),
		svc:     svc,
		stamps:  &stamper{clock: svc.Clock},
		surface: image.NewRGBA(bounds),
		overlay: image.NewRGBA(bounds),
		tool:    ToolPencil,
		brush:   Brush{Color: Black, Size: DefaultBrushSize},
	}
	e.fillWhite()
	renderGrid(e.overlay, e.grid)
	log.Printf("[EDITOR %s] initialized %dx%d canvas", e.short(), cfg.Width, cfg.Height)
	return e, nil
}

// ID returns the editor's session id.
func (e *Editor) ID() string { return e.id }

func (e *Editor) short() string { return e.id[:8] }

// OnChange registers fn to be called after every change to the surface or
// overlay. fn runs without the editor lock held.
func (e *Editor) OnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *Editor) changed() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// OnStatus registers fn to receive short user-facing notices, such as a
// clear that could not run.
func (e *Editor) OnStatus(fn func(string)) {
	e.mu.Lock()
	e.onStatus = fn
	e.mu.Unlock()
}

func (e *Editor) notify(text string) {
	e.mu.Lock()
	fn := e.onStatus
	e.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

// one-shot tools
var toolActions = map[Tool]func(*Editor){
	ToolToggleGrid: (*Editor).ToggleGrid,
	ToolClear:      (*Editor).RequestClear,
}

// SelectTool applies a tool selection. Pencil and Eraser become the active
// tool; ToggleGrid and Clear run once and leave the active tool alone.
func (e *Editor) SelectTool(t Tool) {
	if t.Persistent() {
		e.setTool(t)
		return
	}
	action, ok := toolActions[t]
	if !ok {
		log.Printf("[EDITOR %s] ignoring unknown tool %v", e.short(), t)
		return
	}
	action(e)
}

func (e *Editor) setTool(t Tool) {
	if !t.Persistent() {
		return
	}
	e.mu.Lock()
	e.tool = t
	e.mu.Unlock()
}

// Tool returns the active drawing tool, always Pencil or Eraser.
func (e *Editor) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// ToggleGrid flips the grid overlay. Base pixels are not touched.
func (e *Editor) ToggleGrid() {
	e.mu.Lock()
	e.grid = !e.grid
	renderGrid(e.overlay, e.grid)
	e.mu.Unlock()
	e.changed()
}

func (e *Editor) GridVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

func (e *Editor) SetColor(c color.Color) {
	e.mu.Lock()
	e.brush.Color = opaque(c)
	e.mu.Unlock()
}

func (e *Editor) Color() color.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brush.Color
}

// SetBrushSize sets the pencil width, clamped to [1, MaxBrushSize].
func (e *Editor) SetBrushSize(size int) {
	e.mu.Lock()
	e.brush.Size = clampSize(size)
	e.mu.Unlock()
}

func (e *Editor) BrushSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brush.Size
}

// Size returns the surface dimensions.
func (e *Editor) Size() (int, int) {
	b := e.surface.Bounds()
	return b.Dx(), b.Dy()
}

// BeginStroke starts a stroke at p and paints a dot there. It reports false
// when a stroke is already active or an import is pending.
func (e *Editor) BeginStroke(p Point) bool {
	e.mu.Lock()
	if e.drawing || e.pending {
		e.mu.Unlock()
		return false
	}
	e.drawing = true
	e.stroking = policyFor(e.tool, e.brush)
	e.last = &p
	paintSegment(e.surface, p, p, e.stroking)
	e.mu.Unlock()
	e.changed()
	return true
}

// ContinueStroke paints from the last point to p. Ignored while idle.
func (e *Editor) ContinueStroke(p Point) {
	e.mu.Lock()
	err := e.continueStroke(p)
	e.mu.Unlock()
	if err == nil {
		e.changed()
	}
}

func (e *Editor) continueStroke(p Point) error {
	if !e.drawing || e.last == nil {
		return ErrInvalidTransition
	}
	paintSegment(e.surface, *e.last, p, e.stroking)
	e.last = &p
	return nil
}

// EndStroke returns to idle. Safe to call when already idle.
func (e *Editor) EndStroke() {
	e.mu.Lock()
	e.endStroke()
	e.mu.Unlock()
}

func (e *Editor) endStroke() {
	e.drawing = false
	e.last = nil
}

func (e *Editor) Drawing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drawing
}

// LastPoint returns the last recorded point of the active stroke.
func (e *Editor) LastPoint() (Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Point{}, false
	}
	return *e.last, true
}

// RequestClear asks for confirmation and clears on yes.
func (e *Editor) RequestClear() {
	e.svc.Confirmer.Confirm(ClearPrompt, func(ok bool) {
		if !ok {
			log.Printf("[EDITOR %s] clear declined", e.short())
			return
		}
		if err := e.Clear(); err != nil {
			log.Printf("[EDITOR %s] clear skipped: %v", e.short(), err)
			e.notify(ClearSkipped)
		}
	})
}

// Clear fills the surface with white without asking.
func (e *Editor) Clear() error {
	e.mu.Lock()
	if e.pending {
		e.mu.Unlock()
		return ErrImportPending
	}
	e.fillWhite()
	renderGrid(e.overlay, e.grid)
	e.mu.Unlock()
	log.Printf("[EDITOR %s] canvas cleared", e.short())
	e.changed()
	return nil
}

func (e *Editor) fillWhite() {
	draw.Draw(e.surface, e.surface.Bounds(), image.NewUniform(White), image.Point{}, draw.Src)
}

// Importing reports whether an import is replacing the surface.
func (e *Editor) Importing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Snapshot returns a copy of the base surface without the grid overlay.
func (e *Editor) Snapshot() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := image.NewRGBA(e.surface.Bounds())
	copy(out.Pix, e.surface.Pix)
	return out
}

// Display returns the surface as shown on screen, with the grid on top
// when visible.
func (e *Editor) Display() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := image.NewRGBA(e.surface.Bounds())
	copy(out.Pix, e.surface.Pix)
	if e.grid {
		draw.Draw(out, out.Bounds(), e.overlay, image.Point{}, draw.Over)
	}
	return out
}

// Export encodes the base surface with the configured encoder and hands it
// to the downloader. The grid is never part of an export.
func (e *Editor) Export() (string, error) {
	return e.ExportWith(e.svc.Encoder)
}

// ExportWith is Export with an explicit encoder.
func (e *Editor) ExportWith(enc Encoder) (string, error) {
	data, err := enc.Encode(e.Snapshot())
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", enc.Ext(), err)
	}
	filename := ExportFilename(e.stamps.next(), enc.Ext())
	if err := e.svc.Downloader.Download(data, filename); err != nil {
		return "", fmt.Errorf("download %s: %w", filename, err)
	}
	log.Printf("[EDITOR %s] exported %s (%d bytes)", e.short(), filename, len(data))
	return filename, nil
}

// ImportImage decodes data and replaces the surface with it, drawn at the
// origin without scaling over a white background. Decoding happens without
// the lock; strokes and clears are refused until it finishes. On failure
// the surface is unchanged and the error wraps ErrDecode.
func (e *Editor) ImportImage(data []byte) error {
	e.mu.Lock()
	if e.pending {
		e.mu.Unlock()
		return ErrImportPending
	}
	e.pending = true
	e.endStroke()
	e.mu.Unlock()

	img, err := e.svc.Decoder.Decode(data)
	if err == nil && img == nil {
		err = errors.New("decoder returned no image")
	}

	e.mu.Lock()
	e.pending = false
	if err != nil {
		e.mu.Unlock()
		log.Printf("[EDITOR %s] import aborted: %v", e.short(), err)
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	e.fillWhite()
	b := img.Bounds()
	draw.Draw(e.surface, b.Sub(b.Min), img, b.Min, draw.Over)
	renderGrid(e.overlay, e.grid)
	e.mu.Unlock()

	log.Printf("[EDITOR %s] imported %dx%d image", e.short(), b.Dx(), b.Dy())
	e.changed()
	return nil
}

// AlwaysConfirm answers yes to every prompt. Useful for headless callers.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(_ string, answer func(bool)) { answer(true) }
