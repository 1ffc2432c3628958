package display

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// DefaultMonitor is used when no monitor is configured.
var DefaultMonitor = Monitor{ID: "0", Width: 1920, Height: 1080, ScaleFactor: 1}

// StaticProvider reports a fixed, replaceable monitor list.
type StaticProvider struct {
	mu       sync.RWMutex
	monitors []Monitor
}

func NewStaticProvider(monitors ...Monitor) *StaticProvider {
	p := &StaticProvider{}
	p.Set(monitors)
	return p
}

// ParseStaticProvider builds a provider from WxH[@scale] values. An empty list
// yields a single DefaultMonitor.
func ParseStaticProvider(values []string) (*StaticProvider, error) {
	if len(values) == 0 {
		return NewStaticProvider(DefaultMonitor), nil
	}
	monitors := make([]Monitor, 0, len(values))
	for _, raw := range values {
		m, err := ParseMonitor(raw)
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, m)
	}
	return NewStaticProvider(monitors...), nil
}

// Set replaces the monitor list. Monitors without an ID get their index.
func (p *StaticProvider) Set(monitors []Monitor) {
	next := slices.Clone(monitors)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = fmt.Sprint(i)
		}
	}
	p.mu.Lock()
	p.monitors = next
	p.mu.Unlock()
}

func (p *StaticProvider) Monitors(ctx context.Context) ([]Monitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.monitors), nil
}
