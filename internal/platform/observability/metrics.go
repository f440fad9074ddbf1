package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_items_indexed_total",
		Help: "Index attempts by outcome (created, duplicate, rejected, failed)",
	}, []string{"outcome"})

	IndexRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_index_rejections_total",
		Help: "Candidates rejected by channel indexing rules",
	}, []string{"reason"})

	ChannelErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_channel_errors_total",
		Help: "Index failures recorded against a channel",
	}, []string{"channel"})

	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_search_requests_total",
		Help: "Search requests by source and outcome",
	}, []string{"source", "outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediasearch_search_duration_seconds",
		Help:    "Duration of store searches",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	SearchCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_search_cache_total",
		Help: "Search page cache lookups by result",
	}, []string{"result"})

	QueryCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediasearch_query_corrections_total",
		Help: "Queries rewritten by spelling correction",
	})

	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_access_decisions_total",
		Help: "Per-result access decisions",
	}, []string{"decision"})

	MetadataLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_metadata_lookups_total",
		Help: "External metadata lookups by outcome",
	}, []string{"outcome"})

	MetadataLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediasearch_metadata_lookup_duration_seconds",
		Help:    "Duration of external metadata requests",
		Buckets: prometheus.DefBuckets,
	})

	FilesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_files_delivered_total",
		Help: "File deliveries by result",
	}, []string{"result"})

	ItemsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediasearch_items_expired_total",
		Help: "Items soft-deleted by the cleanup sweep",
	})

	CorpusTitles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediasearch_corpus_titles",
		Help: "Titles held in the in-process correction corpus",
	})

	ReaderMessagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_reader_messages_fetched_total",
		Help: "Channel history messages fetched by the reader",
	}, []string{"channel"})

	WorkerCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasearch_worker_cycles_total",
		Help: "Background loop iterations by worker and outcome",
	}, []string{"worker", "outcome"})
)
