package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the size of an image accepted for import.
const MaxPixels = 8192 * 8192

var ErrTooLarge = errors.New("image too large")

// PNG encodes snapshots as PNG and decodes any registered format, sniffed
// from the content rather than a file extension.
type PNG struct {
	Level png.CompressionLevel
}

func (PNG) Ext() string { return "png" }

func (c PNG) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: c.Level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (PNG) Decode(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("sniff: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%s %dx%d: %w", format, cfg.Width, cfg.Height, ErrTooLarge)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	log.Printf("[EXPORT] decoded %s image %dx%d", format, cfg.Width, cfg.Height)
	return img, nil
}
