package export

import (
	"bytes"
	"fmt"
	"image"

	"github.com/jung-kurt/gofpdf"
)

// PDF wraps the flattened raster in a single page sized to the canvas, one
// point per pixel, for printing.
type PDF struct {
	Title string
}

func (PDF) Ext() string { return "pdf" }

func (p PDF) Encode(img image.Image) ([]byte, error) {
	raster, err := PNG{}.Encode(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	doc.SetCreator("PixelCraft", true)
	if p.Title != "" {
		doc.SetTitle(p.Title, true)
	}
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("canvas", opts, bytes.NewReader(raster))
	doc.ImageOptions("canvas", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
