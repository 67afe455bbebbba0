package logging

import "sync"

// BatchProgress decides when a long batch should emit a progress line. It
// fires on the first item, on the last item, and whenever the completed share
// crosses a new bucket boundary (default 10%).
type BatchProgress struct {
	mu         sync.Mutex
	total      int
	bucketSize float64
	lastBucket int
}

func NewBatchProgress(total int, bucketSize float64) *BatchProgress {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &BatchProgress{total: total, bucketSize: bucketSize, lastBucket: -1}
}

// Advance records completion of done items and reports whether the caller
// should log. A nil receiver always reports true.
func (p *BatchProgress) Advance(done int) bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 {
		return false
	}
	if done >= p.total {
		if p.lastBucket == -2 {
			return false
		}
		p.lastBucket = -2
		return true
	}
	if p.lastBucket == -2 {
		return false
	}
	percent := float64(done) * 100 / float64(p.total)
	bucket := int(percent / p.bucketSize)
	if bucket > p.lastBucket {
		p.lastBucket = bucket
		return true
	}
	return false
}

// Percent returns the completed share for done items.
func (p *BatchProgress) Percent(done int) float64 {
	if p == nil || p.total <= 0 {
		return 100
	}
	return float64(done) * 100 / float64(p.total)
}
