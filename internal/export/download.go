package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Dir saves downloads into a directory, the desktop analog of a browser
// download.
type Dir struct {
	Path string
}

func (d Dir) Download(data []byte, filename string) error {
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid filename %q", filename)
	}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return err
	}
	path := filepath.Join(d.Path, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("[EXPORT] saved %s (%d bytes)", path, len(data))
	return nil
}
