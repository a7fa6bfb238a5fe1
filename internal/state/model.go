package state

import (
	"fmt"
	"image/color"
)

const (
	DefaultBrushSize = 2
	MaxBrushSize     = 50
	EraserWidth      = 10
	GridCellSize     = 20

	// MaxCanvasPixels bounds Width*Height of a surface.
	MaxCanvasPixels = 8192 * 8192
)

var (
	White      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black      = color.RGBA{A: 255}
	GridColor  = color.RGBA{R: 204, G: 204, B: 204, A: 255}
	GridWeight = 0.5
)

// Point is a canvas-local position in pixels.
type Point struct{ X, Y float64 }

type Tool int

const (
	ToolPencil Tool = iota
	ToolEraser
	ToolToggleGrid
	ToolClear
)

var toolNames = map[Tool]string{
	ToolPencil:     "pencil",
	ToolEraser:     "eraser",
	ToolToggleGrid: "grid",
	ToolClear:      "clear",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Persistent reports whether the tool stays selected after it is picked.
// ToggleGrid and Clear are one-shot actions.
func (t Tool) Persistent() bool {
	return t == ToolPencil || t == ToolEraser
}

// ParseTool maps a front end tool id to a Tool.
func ParseTool(id string) (Tool, error) {
	for t, name := range toolNames {
		if name == id {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", id)
}

// Brush is the pencil configuration. The eraser ignores it.
type Brush struct {
	Color color.RGBA
	Size  int
}

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxBrushSize {
		return MaxBrushSize
	}
	return size
}

// Config sizes the surface.
type Config struct {
	Width  int
	Height int
}

func DefaultConfig() Config {
	return Config{Width: 800, Height: 600}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.Width, c.Height)
	}
	if c.Width > MaxCanvasPixels/c.Height {
		return fmt.Errorf("canvas %dx%d exceeds %d pixels", c.Width, c.Height, MaxCanvasPixels)
	}
	return nil
}
