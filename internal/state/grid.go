package state

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
)

// gridLines returns the line offsets k*cell for k = 0..ceil(extent/cell).
func gridLines(extent, cell int) []int {
	n := (extent + cell - 1) / cell
	lines := make([]int, 0, n+1)
	for k := 0; k <= n; k++ {
		lines = append(lines, k*cell)
	}
	return lines
}

// renderGrid repaints the overlay layer. The base surface is never touched.
// Lines are centered on pixel centers so a line at x = k*cell lands in
// pixel column k*cell.
func renderGrid(overlay *image.RGBA, visible bool) {
	draw.Draw(overlay, overlay.Bounds(), image.Transparent, image.Point{}, draw.Src)
	if !visible {
		return
	}

	w, h := overlay.Bounds().Dx(), overlay.Bounds().Dy()
	ras := vector.NewRasterizer(w, h)
	half := float32(GridWeight / 2)
	for _, x := range gridLines(w, GridCellSize) {
		if x >= w {
			continue
		}
		cx := float32(x) + 0.5
		rect(ras, cx-half, 0, cx+half, float32(h))
	}
	for _, y := range gridLines(h, GridCellSize) {
		if y >= h {
			continue
		}
		cy := float32(y) + 0.5
		rect(ras, 0, cy-half, float32(w), cy+half)
	}
	ras.DrawOp = draw.Over
	ras.Draw(overlay, overlay.Bounds(), image.NewUniform(GridColor), image.Point{})
}

func rect(ras *vector.Rasterizer, x0, y0, x1, y1 float32) {
	ras.MoveTo(x0, y0)
	ras.LineTo(x1, y0)
	ras.LineTo(x1, y1)
	ras.LineTo(x0, y1)
	ras.ClosePath()
}
