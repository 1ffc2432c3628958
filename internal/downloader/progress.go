package downloader

import "math"

type progressTracker struct {
	report  ProgressFunc
	total   int64
	written int64
	last    int
}

func (p *progressTracker) start(total int64) {
	p.total = total
	if total <= 0 {
		p.report(-1, false)
	}
}

func (p *progressTracker) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		percent := int(math.Round(float64(p.written) * 100 / float64(p.total)))
		percent = min(percent, 100)
		if percent != p.last {
			p.last = percent
			p.report(percent, false)
		}
	}
	return len(b), nil
}

func (p *progressTracker) finish(ok bool) {
	if ok {
		p.last = 100
	}
	p.report(p.last, true)
}
