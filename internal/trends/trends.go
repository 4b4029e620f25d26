// Package trends computes view-count statistics over a playlist's history.
// The computation is embarrassingly parallel per video, so a pooled engine
// exists for large batches; both engines produce identical results.
package trends

import (
	"sync"
)

// Direction of the most recent sample relative to the running average.
const (
	DirectionIncreasing = "increasing"
	DirectionDecreasing = "decreasing"
)

// Stats summarizes a single video's view-count series.
type Stats struct {
	Total     int64   `json:"total"`
	Average   float64 `json:"average"`
	Max       int64   `json:"max"`
	Min       int64   `json:"min"`
	Count     int     `json:"count"`
	Direction string  `json:"trend"`
}

// Engine computes per-video trend statistics from view-count series keyed by
// video URL. Empty series are dropped from the result.
type Engine interface {
	ComputeTrends(series map[string][]int64) map[string]Stats
}

// compute is the shared per-series kernel.
func compute(views []int64) Stats {
	var total int64
	max, min := views[0], views[0]
	for _, v := range views {
		total += v
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	avg := float64(total) / float64(len(views))
	dir := DirectionDecreasing
	if float64(views[len(views)-1]) > avg {
		dir = DirectionIncreasing
	}
	return Stats{
		Total:     total,
		Average:   avg,
		Max:       max,
		Min:       min,
		Count:     len(views),
		Direction: dir,
	}
}

// SyncEngine computes everything on the calling goroutine.
type SyncEngine struct{}

func (SyncEngine) ComputeTrends(series map[string][]int64) map[string]Stats {
	out := make(map[string]Stats, len(series))
	for url, views := range series {
		if len(views) == 0 {
			continue
		}
		out[url] = compute(views)
	}
	return out
}

// PoolEngine fans series out over a bounded number of goroutines.
type PoolEngine struct {
	Workers int
}

func (e PoolEngine) ComputeTrends(series map[string][]int64) map[string]Stats {
	workers := e.Workers
	if workers <= 1 || len(series) <= 1 {
		return SyncEngine{}.ComputeTrends(series)
	}
	if workers > len(series) {
		workers = len(series)
	}

	type job struct {
		url   string
		views []int64
	}
	jobs := make(chan job)
	out := make(map[string]Stats, len(series))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				stats := compute(j.views)
				mu.Lock()
				out[j.url] = stats
				mu.Unlock()
			}
		}()
	}

	for url, views := range series {
		if len(views) == 0 {
			continue
		}
		jobs <- job{url: url, views: views}
	}
	close(jobs)
	wg.Wait()
	return out
}

// New returns the engine for the configured worker count: zero or one means
// synchronous.
func New(workers int) Engine {
	if workers <= 1 {
		return SyncEngine{}
	}
	return PoolEngine{Workers: workers}
}
