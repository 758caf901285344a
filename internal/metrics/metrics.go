// Package metrics exposes the client's Prometheus counters. They register on
// the default registry; serving /metrics is the embedding application's job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "downloads_total",
		Help:      "Archive downloads attempted, by outcome (ok, error).",
	}, []string{"outcome"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "cache_hits_total",
		Help:      "File-cache lookups served from disk.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "cache_misses_total",
		Help:      "File-cache lookups that required a download.",
	})

	Retries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "retries_total",
		Help:      "Per-URL fetch retries.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "rate_limited_total",
		Help:      "Responses that signalled throttling.",
	})

	Fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "bigquery_fallbacks_total",
		Help:      "Streams rerouted from files to BigQuery.",
	})

	RecordsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "records_parsed_total",
		Help:      "Raw records parsed, by dataset.",
	}, []string{"dataset"})

	ParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "parse_failures_total",
		Help:      "Rows or lines that failed to parse, by dataset.",
	}, []string{"dataset"})

	DedupDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gdelt",
		Name:      "dedup_dropped_total",
		Help:      "Records suppressed by deduplication.",
	})
)
