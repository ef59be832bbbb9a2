package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	classes := []string{"book", "audio", "video"}

	for _, class := range classes {
		AnalysesTotal.WithLabelValues(class, "ok")
		AnalysesTotal.WithLabelValues(class, "degraded")
		AnalysisDuration.WithLabelValues(class)
		CatalogAssets.WithLabelValues(class)
	}

	for _, tier := range []string{"custom", "external", "generated", "persisted", "none"} {
		ThumbnailsResolvedTotal.WithLabelValues(tier)
	}

	for _, res := range []string{"low", "high"} {
		PagesRenderedTotal.WithLabelValues(res)
	}

	for _, outcome := range []string{"success", "network_error", "server_error", "cancelled"} {
		UploadsTotal.WithLabelValues(outcome)
	}
}
