package metrics

import (
	"time"

	"media-author/internal/logging"
)

// StatsProvider is implemented by the catalogue store to report asset counts.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current catalogue statistics.
type Stats struct {
	Books  int
	Audio  int
	Videos int
}

// Collector periodically collects and updates catalogue gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	CatalogAssets.WithLabelValues("book").Set(float64(stats.Books))
	CatalogAssets.WithLabelValues("audio").Set(float64(stats.Audio))
	CatalogAssets.WithLabelValues("video").Set(float64(stats.Videos))

	logging.Debug("Metrics collected: %d books, %d audio, %d videos", stats.Books, stats.Audio, stats.Videos)
}
