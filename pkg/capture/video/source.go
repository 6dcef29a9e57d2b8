// Package video supplies candidate frames to the vision analyzer.
//
// A FrameSource abstracts where frames come from: a directory of still
// images cycled in order (webcam snapshot dumps), or a synthetic generator
// used in tests and demo mode. Sources deliver frames on demand; the session
// orchestrator controls the sampling interval.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("video: source is closed")

// Frame is one captured video frame.
type Frame struct {
	Image     image.Image
	Timestamp time.Time
}

// FrameSource produces frames one at a time.
//
// Sources are not safe for concurrent Read calls; the orchestrator's analysis
// loop is the sole reader. Close may be called while a Read is in flight.
type FrameSource interface {
	// Open prepares the source. Must be called before Read.
	Open() error

	// Read returns the next frame, blocking at most until ctx is done.
	Read(ctx context.Context) (Frame, error)

	// Close releases the source. Read returns ErrClosed afterwards.
	Close() error
}

// Compile-time assertion that DirSource satisfies FrameSource.
var _ FrameSource = (*DirSource)(nil)

// DirSource cycles through image files (PNG, JPEG) in a directory, sorted by
// name. It simulates a webcam from snapshot dumps.
type DirSource struct {
	dir    string
	paths  []string
	next   int
	closed atomic.Bool
}

// NewDirSource creates a DirSource over dir. The directory is scanned at
// Open time.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Open scans the directory for image files.
func (s *DirSource) Open() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("video: read dir %q: %w", s.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(s.dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("video: no image files in %q", s.dir)
	}
	sort.Strings(paths)

	s.paths = paths
	s.next = 0
	s.closed.Store(false)
	return nil
}

// Read decodes the next image file, wrapping around at the end.
func (s *DirSource) Read(ctx context.Context) (Frame, error) {
	if s.closed.Load() {
		return Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, fmt.Errorf("video: read: %w", err)
	}
	if len(s.paths) == 0 {
		return Frame{}, fmt.Errorf("video: source not opened")
	}

	path := s.paths[s.next%len(s.paths)]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("video: open frame %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("video: decode frame %q: %w", path, err)
	}

	return Frame{Image: img, Timestamp: time.Now()}, nil
}

// Close implements FrameSource. Safe to call while a Read is in flight.
func (s *DirSource) Close() error {
	s.closed.Store(true)
	return nil
}
