// Package imagestore keeps downloaded wallpaper images in one flat directory.
// The directory listing is the index: nothing else is persisted.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"spaceeye/internal/logging"
)

const (
	DefaultRetention   = 120 * time.Minute
	maxParallelDeletes = 8
)

type Options struct {
	Dir       string
	Retention time.Duration
	Logger    *logging.Logger
	Now       func() time.Time
}

type Store struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	logger    *logging.Logger

	mu       sync.Mutex
	inFlight map[string]int
}

func New(opts Options) (*Store, error) {
	if opts.Logger == nil {
		panic("imagestore.New: logger must not be nil")
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("imagestore: directory is required")
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &Store{
		dir:       opts.Dir,
		retention: opts.Retention,
		now:       opts.Now,
		logger:    opts.Logger.Scope("image-store"),
		inFlight:  map[string]int{},
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(img DownloadedImage) string {
	return filepath.Join(s.dir, img.FileName())
}

func (s *Store) PartialPath(img DownloadedImage) string {
	return s.Path(img) + PartialSuffix
}

// NewImage stamps a record for sourceID with the current UTC time.
func (s *Store) NewImage(sourceID int, ext string) DownloadedImage {
	return DownloadedImage{
		ImageID:   sourceID,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
		Extension: strings.TrimPrefix(strings.ToLower(ext), "."),
	}
}

func (s *Store) Now() time.Time {
	return s.now()
}

// Images lists every complete image in the directory.
func (s *Store) Images(ctx context.Context) ([]DownloadedImage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}
	images := make([]DownloadedImage, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		if img, ok := ParseFileName(entry.Name()); ok {
			images = append(images, img)
		}
	}
	return images, nil
}

// NewestImage returns the most recently downloaded image of sourceID.
func (s *Store) NewestImage(ctx context.Context, sourceID int) (DownloadedImage, bool, error) {
	images, err := s.Images(ctx)
	if err != nil {
		return DownloadedImage{}, false, err
	}
	var newest DownloadedImage
	found := false
	for _, img := range images {
		if img.ImageID != sourceID {
			continue
		}
		if !found || img.Timestamp.After(newest.Timestamp) {
			newest = img
			found = true
		}
	}
	return newest, found, nil
}

// BeginPartial registers a partial file as being written so Cleanup leaves it
// alone until EndPartial.
func (s *Store) BeginPartial(path string) {
	s.mu.Lock()
	s.inFlight[filepath.Base(path)]++
	s.mu.Unlock()
}

func (s *Store) EndPartial(path string) {
	name := filepath.Base(path)
	s.mu.Lock()
	if s.inFlight[name] <= 1 {
		delete(s.inFlight, name)
	} else {
		s.inFlight[name]--
	}
	s.mu.Unlock()
}

// Remove deletes img. A missing file is not an error.
func (s *Store) Remove(img DownloadedImage) error {
	return removeIfExists(s.Path(img))
}

// Cleanup deletes images older than the retention window and every partial
// file not currently being written.
func (s *Store) Cleanup(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read images dir: %w", err)
	}
	now := s.now()

	s.mu.Lock()
	var doomed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, PartialSuffix) {
			if s.inFlight[name] == 0 {
				doomed = append(doomed, name)
			}
			continue
		}
		if img, ok := ParseFileName(name); ok && img.Age(now) > s.retention {
			doomed = append(doomed, name)
		}
	}
	s.mu.Unlock()

	if len(doomed) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeletes)
	for _, name := range doomed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return removeIfExists(filepath.Join(s.dir, name))
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("image cleanup incomplete", logging.Field("error", err))
		return err
	}
	s.logger.Debug("image cleanup finished", logging.Field("deleted", len(doomed)))
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
