package updater

import (
	"slices"

	"spaceeye/internal/display"
	"spaceeye/internal/satconfig"
)

// bestFitForMonitor returns the smallest source that covers the monitor's
// physical resolution, or the largest source when none does. Thumbnails are
// only considered when the view has nothing else.
func bestFitForMonitor(sources []satconfig.ImageSource, monitor display.Monitor) (satconfig.ImageSource, bool) {
	candidates := make([]satconfig.ImageSource, 0, len(sources))
	for _, s := range sources {
		if !s.IsThumbnail {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, sources...)
	}
	if len(candidates) == 0 {
		return satconfig.ImageSource{}, false
	}
	slices.SortStableFunc(candidates, func(a, b satconfig.ImageSource) int {
		return a.Area() - b.Area()
	})
	width, height := monitor.ScaledWidth(), monitor.ScaledHeight()
	for _, s := range candidates {
		if s.Width() >= width && s.Height() >= height {
			return s, true
		}
	}
	return candidates[len(candidates)-1], true
}

// SelectImage picks one source for every monitor: the largest of the
// per-monitor best fits.
func SelectImage(sources []satconfig.ImageSource, monitors []display.Monitor) (satconfig.ImageSource, bool) {
	var best satconfig.ImageSource
	found := false
	for _, m := range monitors {
		pick, ok := bestFitForMonitor(sources, m)
		if !ok {
			continue
		}
		if !found || pick.Area() > best.Area() {
			best = pick
			found = true
		}
	}
	return best, found
}
