// Package satconfig caches the satellite catalog fetched from the config
// origin and answers lookups against it.
package satconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"spaceeye/internal/client"
	"spaceeye/internal/logging"
)

const DefaultTTL = 900 * time.Second

var (
	// ErrRequest wraps every failure to obtain a catalog.
	ErrRequest  = errors.New("satellite config request failed")
	ErrNotFound = errors.New("not found in satellite config")
)

type Fetcher interface {
	FetchConditional(ctx context.Context, url, etag string) (client.Fetched, error)
}

type Options struct {
	URL    string
	TTL    time.Duration
	Logger *logging.Logger
	// Now replaces the clock in tests.
	Now func() time.Time
}

type Store struct {
	fetcher Fetcher
	url     string
	ttl     time.Duration
	now     func() time.Time
	logger  *logging.Logger

	mu          sync.Mutex
	config      *RootConfig
	etag        string
	lastUpdated time.Time
}

func New(fetcher Fetcher, opts Options) *Store {
	if opts.Logger == nil {
		panic("satconfig.New: logger must not be nil")
	}
	if fetcher == nil {
		panic("satconfig.New: fetcher must not be nil")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		fetcher: fetcher,
		url:     opts.URL,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  opts.Logger.Scope("satellite-config"),
	}
}

// Config returns the catalog, refreshing it when the cached copy is older than
// the TTL. Concurrent callers share one refresh. When a refresh fails and an
// older copy exists, that copy is returned and the next call retries.
func (s *Store) Config(ctx context.Context) (*RootConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config != nil && s.now().Sub(s.lastUpdated) <= s.ttl {
		return s.config, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		if s.config != nil && ctx.Err() == nil {
			s.logger.Warn("serving stale satellite config",
				logging.Field("error", err),
				logging.Field("fetched_at", s.lastUpdated.UTC().Format(time.RFC3339)),
			)
			return s.config, nil
		}
		return nil, err
	}
	return s.config, nil
}

// LastUpdated is the time of the last successful fetch or revalidation.
func (s *Store) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

func (s *Store) refreshLocked(ctx context.Context) error {
	s.logger.Debug("updating satellite config", logging.Field("url", s.url), logging.Field("has_etag", s.etag != ""))
	fetched, err := s.fetcher.FetchConditional(ctx, s.url, s.etag)
	if err != nil {
		s.logger.Info("satellite config update failed", logging.Field("error", err))
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if fetched.NotModified {
		if s.config == nil {
			return fmt.Errorf("%w: not modified reply without a cached config", ErrRequest)
		}
		s.logger.Debug("etag unchanged; keeping cached config")
		s.lastUpdated = s.now()
		return nil
	}

	var decoded RootConfig
	if err := json.Unmarshal(fetched.Body, &decoded); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrRequest, err)
	}
	s.logger.Debug("setting new satellite config",
		logging.Field("version", decoded.Version),
		logging.Field("satellites", len(decoded.Satellites)),
	)
	s.config = &decoded
	s.etag = fetched.ETag
	s.lastUpdated = s.now()
	return nil
}
