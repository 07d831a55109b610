package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPartitionMetrics() {
	r.PartitionsCreatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gds_partition_created_total",
			Help: "Total number of partitions produced, by partitioner kind",
		},
		[]string{"kind"},
	)

	r.PartitionNodes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gds_partition_nodes",
			Help:    "Number of nodes per produced partition",
			Buckets: prometheus.ExponentialBuckets(1, 8, 10),
		},
		[]string{"kind"},
	)
}
