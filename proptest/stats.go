package proptest

import (
	"github.com/montanaflynn/stats"
)

// collector accumulates run counters. Every field only grows.
type collector struct {
	attempted   int
	passed      int
	failed      int
	skipped     int
	examplesRun int

	generated int
	valid     int
	rejected  int
	sizes     []float64
	sizeDist  map[int]int
}

func newCollector() *collector {
	return &collector{sizeDist: make(map[int]int)}
}

func (c *collector) recordGenerated(size int, valid bool) {
	c.generated++
	if valid {
		c.valid++
	}
	c.sizes = append(c.sizes, float64(size))
	c.sizeDist[size]++
}

func (c *collector) finalize(cache *resultCache) Statistics {
	s := Statistics{
		Attempted:   c.attempted,
		Passed:      c.passed,
		Failed:      c.failed,
		Skipped:     c.skipped,
		ExamplesRun: c.examplesRun,
		CacheHits:   cache.hits,
		Generation: GenerationStats{
			TotalGenerated:   c.generated,
			ValidGenerated:   c.valid,
			Rejected:         c.rejected,
			SizeDistribution: c.sizeDist,
		},
	}
	if cache.lookups > 0 {
		s.CacheHitRate = float64(cache.hits) / float64(cache.lookups)
	}
	if c.generated > 0 {
		s.Generation.RejectionRate = float64(c.generated-c.valid) / float64(c.generated)
	}
	if len(c.sizes) == 0 {
		return s
	}
	// Errors only occur for empty input, which is excluded above.
	s.Generation.AverageSize, _ = stats.Mean(c.sizes)
	s.Generation.MedianSize, _ = stats.Median(c.sizes)
	s.Generation.P90Size, _ = stats.Percentile(c.sizes, 90)
	return s
}
