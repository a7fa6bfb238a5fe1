package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock is the time source for export filenames.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// stamper hands out strictly increasing millisecond stamps, like a Lamport
// clock fed by wall time.
type stamper struct {
	clock Clock
	last  int64
	mu    sync.Mutex
}

func (s *stamper) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now().UnixMilli()
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return now
}

// ExportFilename builds pixelcraft_<unix-millis>.<ext>.
func ExportFilename(millis int64, ext string) string {
	return fmt.Sprintf("pixelcraft_%d.%s", millis, ext)
}

func newSessionID() string {
	return uuid.NewString()
}
