// Package display describes the attached monitors the wallpaper is chosen for.
package display

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Monitor struct {
	ID          string
	Width       int
	Height      int
	ScaleFactor float64
	// Internal monitors (laptop lids, virtual displays) are not given wallpapers.
	Internal bool
}

// ScaledWidth is the physical pixel width.
func (m Monitor) ScaledWidth() int {
	return int(math.Round(float64(m.Width) * m.scale()))
}

func (m Monitor) ScaledHeight() int {
	return int(math.Round(float64(m.Height) * m.scale()))
}

func (m Monitor) scale() float64 {
	if m.ScaleFactor <= 0 {
		return 1
	}
	return m.ScaleFactor
}

// Provider enumerates the currently attached monitors.
type Provider interface {
	Monitors(ctx context.Context) ([]Monitor, error)
}

// Fingerprint summarizes a monitor layout so two enumerations can be compared.
func Fingerprint(monitors []Monitor) string {
	parts := make([]string, 0, len(monitors))
	for _, m := range monitors {
		parts = append(parts, fmt.Sprintf("%s:%dx%d@%g:%t", m.ID, m.Width, m.Height, m.scale(), m.Internal))
	}
	return strings.Join(parts, "|")
}

// External drops internal monitors.
func External(monitors []Monitor) []Monitor {
	out := make([]Monitor, 0, len(monitors))
	for _, m := range monitors {
		if !m.Internal {
			out = append(out, m)
		}
	}
	return out
}

// ParseMonitor reads WxH or WxH@scale.
func ParseMonitor(raw string) (Monitor, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Monitor{}, errors.New("empty monitor value")
	}
	scale := 1.0
	if size, rawScale, ok := strings.Cut(value, "@"); ok {
		parsed, err := strconv.ParseFloat(rawScale, 64)
		if err != nil || parsed <= 0 {
			return Monitor{}, fmt.Errorf("monitor %q: invalid scale factor", raw)
		}
		scale = parsed
		value = size
	}
	rawW, rawH, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return Monitor{}, fmt.Errorf("monitor %q: want WxH[@scale]", raw)
	}
	width, errW := strconv.Atoi(rawW)
	height, errH := strconv.Atoi(rawH)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return Monitor{}, fmt.Errorf("monitor %q: invalid dimensions", raw)
	}
	return Monitor{Width: width, Height: height, ScaleFactor: scale}, nil
}
