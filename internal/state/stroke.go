package state

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// kappa places the cubic control points of a quarter circle.
const kappa = 0.5522847498

type compositeOp int

const (
	sourceOver compositeOp = iota
	destinationOut
)

// policy is how the active tool turns pointer motion into pixels.
type policy struct {
	width float64
	color color.RGBA
	op    compositeOp
}

func policyFor(t Tool, b Brush) policy {
	if t == ToolEraser {
		return policy{width: EraserWidth, op: destinationOut}
	}
	return policy{width: float64(b.Size), color: b.Color, op: sourceOver}
}

func (p Point) add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// valid rejects NaN, Inf and coordinates too far out to rasterize.
func (p Point) valid() bool {
	return math.Abs(p.X) < 1e7 && math.Abs(p.Y) < 1e7
}

func lineTo(ras *vector.Rasterizer, p Point) {
	ras.LineTo(float32(p.X), float32(p.Y))
}

// paintSegment draws a round-capped segment from a to b. Consecutive
// segments share their end caps, which gives round joins.
func paintSegment(dst *image.RGBA, a, b Point, p policy) {
	if !a.valid() || !b.valid() || p.width <= 0 {
		return
	}
	r := p.width / 2
	bounds := image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-r)),
		int(math.Floor(math.Min(a.Y, b.Y)-r)),
		int(math.Ceil(math.Max(a.X, b.X)+r)),
		int(math.Ceil(math.Max(a.Y, b.Y)+r)),
	).Intersect(dst.Bounds())
	if bounds.Empty() {
		return // off surface
	}

	origin := Point{float64(bounds.Min.X), float64(bounds.Min.Y)}
	ras := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	capsule(ras, a.sub(origin), b.sub(origin), r)

	var src image.Image
	switch p.op {
	case destinationOut:
		// the surface has no transparency, so removing paint reveals the
		// white backdrop
		src = image.NewUniform(White)
	default:
		src = image.NewUniform(p.color)
	}
	ras.DrawOp = draw.Over
	ras.Draw(dst, bounds, src, image.Point{})
}

// capsule adds the outline of a segment of radius r with round caps.
// A zero-length segment becomes a disc.
func capsule(ras *vector.Rasterizer, a, b Point, r float64) {
	d := b.sub(a)
	l := math.Hypot(d.X, d.Y)
	if l < 1e-9 {
		d = Point{1, 0}
	} else {
		d = d.scale(1 / l)
	}
	n := Point{-d.Y, d.X}

	start := a.add(n.scale(r))
	ras.MoveTo(float32(start.X), float32(start.Y))
	lineTo(ras, b.add(n.scale(r)))
	quarter(ras, b, n, d, r)
	quarter(ras, b, d, n.scale(-1), r)
	lineTo(ras, a.add(n.scale(-r)))
	quarter(ras, a, n.scale(-1), d.scale(-1), r)
	quarter(ras, a, d.scale(-1), n, r)
	ras.ClosePath()
}

// quarter adds the arc around c from direction u to direction v.
func quarter(ras *vector.Rasterizer, c, u, v Point, r float64) {
	c1 := c.add(u.scale(r)).add(v.scale(kappa * r))
	c2 := c.add(v.scale(r)).add(u.scale(kappa * r))
	end := c.add(v.scale(r))
	ras.CubeTo(
		float32(c1.X), float32(c1.Y),
		float32(c2.X), float32(c2.Y),
		float32(end.X), float32(end.Y),
	)
}
