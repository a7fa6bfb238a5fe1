package export

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"pixelcraft/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if (x/4+y/4)%2 == 0 {
				c = color.RGBA{R: 200, G: 10, B: 40, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPNGRoundTrip(t *testing.T) {
	src := checker(33, 17)
	data, err := PNG{}.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	img, err := PNG{}.Decode(data)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), img.Bounds())
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, image.Point{}, draw.Src)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDecodeSniffsContent(t *testing.T) {
	src := checker(16, 16)
	encoders := map[string]func(*bytes.Buffer) error{
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
	}
	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, enc(&buf))
			img, err := PNG{}.Decode(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, src.Bounds(), img.Bounds())
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := PNG{}.Decode([]byte("GIF89a but not really"))
	assert.Error(t, err)
	_, err = PNG{}.Decode(nil)
	assert.Error(t, err)
}

func TestDecodeRejectsHugeImages(t *testing.T) {
	data, err := PNG{}.Encode(checker(1, 1))
	require.NoError(t, err)

	// rewrite the IHDR dimensions; DecodeConfig never reads the pixels
	ihdr := data[8+8 : 8+8+13]
	binary.BigEndian.PutUint32(ihdr[0:], 20000)
	binary.BigEndian.PutUint32(ihdr[4:], 20000)
	crc := crc32.NewIEEE()
	crc.Write(data[8+4 : 8+8+13])
	binary.BigEndian.PutUint32(data[8+8+13:], crc.Sum32())

	_, err = PNG{}.Decode(data)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPDFEncode(t *testing.T) {
	data, err := PDF{Title: "test"}.Encode(checker(40, 30))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, "pdf", PDF{}.Ext())
}

func TestDirDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	d := Dir{Path: dir}
	require.NoError(t, d.Download([]byte("abc"), "pixelcraft_1.png"))

	got, err := os.ReadFile(filepath.Join(dir, "pixelcraft_1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	assert.Error(t, d.Download([]byte("x"), "../escape.png"))
}

// The grid is visible while exporting but never lands in the file.
func TestEditorRoundTripThroughPNG(t *testing.T) {
	downloads := Dir{Path: t.TempDir()}
	e, err := state.New(state.Config{Width: 64, Height: 48}, state.Services{
		Encoder:    PNG{},
		Decoder:    PNG{},
		Downloader: downloads,
		Confirmer:  state.AlwaysConfirm{},
	})
	require.NoError(t, err)

	e.SetColor(color.RGBA{R: 30, G: 60, B: 200, A: 255})
	e.SetBrushSize(5)
	e.BeginStroke(state.Point{X: 4, Y: 40})
	e.ContinueStroke(state.Point{X: 60, Y: 8})
	e.EndStroke()
	e.SelectTool(state.ToolToggleGrid)
	want := e.Snapshot()

	name, err := e.Export()
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(downloads.Path, name))
	require.NoError(t, err)

	e.SelectTool(state.ToolClear)
	require.NoError(t, e.ImportImage(data))
	assert.Equal(t, want.Pix, e.Snapshot().Pix)
}
