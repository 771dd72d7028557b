package cellclust

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting per-stage metrics.
// Implement this interface to integrate with external monitoring; the
// pipeline itself only ever calls it, never reads it.
type MetricsCollector interface {
	// RecordLoad is called after the feature table load stage.
	RecordLoad(rows, markers int, duration time.Duration, err error)

	// RecordNeighborSearch is called after all neighbor lists are built.
	// k is the configured neighbor count.
	RecordNeighborSearch(k int, duration time.Duration, err error)

	// RecordGraphBuild is called after the similarity graph stage.
	// edges is the number of undirected edges kept.
	RecordGraphBuild(edges int, duration time.Duration, err error)

	// RecordPartition is called after community detection.
	RecordPartition(clusters int, modularity float64, duration time.Duration, err error)

	// RecordArtifact is called for each output artifact written.
	RecordArtifact(name string, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordNeighborSearch(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordGraphBuild(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordPartition(int, float64, time.Duration, error) {}
func (NoopMetricsCollector) RecordArtifact(string, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	LoadRows         atomic.Int64
	LoadMarkers      atomic.Int64
	LoadNanos        atomic.Int64
	SearchNanos      atomic.Int64
	GraphEdges       atomic.Int64
	GraphNanos       atomic.Int64
	PartitionNanos   atomic.Int64
	Clusters         atomic.Int64
	ArtifactCount    atomic.Int64
	ArtifactBytes    atomic.Int64
	ArtifactFailures atomic.Int64
	Errors           atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(rows, markers int, duration time.Duration, err error) {
	b.LoadRows.Store(int64(rows))
	b.LoadMarkers.Store(int64(markers))
	b.LoadNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Errors.Add(1)
	}
}

// RecordNeighborSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNeighborSearch(k int, duration time.Duration, err error) {
	b.SearchNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Errors.Add(1)
	}
}

// RecordGraphBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGraphBuild(edges int, duration time.Duration, err error) {
	b.GraphEdges.Store(int64(edges))
	b.GraphNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Errors.Add(1)
	}
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(clusters int, modularity float64, duration time.Duration, err error) {
	b.Clusters.Store(int64(clusters))
	b.PartitionNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Errors.Add(1)
	}
}

// RecordArtifact implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArtifact(name string, bytes int64, duration time.Duration, err error) {
	b.ArtifactCount.Add(1)
	b.ArtifactBytes.Add(bytes)
	if err != nil {
		b.ArtifactFailures.Add(1)
		b.Errors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadRows:         b.LoadRows.Load(),
		LoadMarkers:      b.LoadMarkers.Load(),
		LoadNanos:        b.LoadNanos.Load(),
		SearchNanos:      b.SearchNanos.Load(),
		GraphEdges:       b.GraphEdges.Load(),
		GraphNanos:       b.GraphNanos.Load(),
		PartitionNanos:   b.PartitionNanos.Load(),
		Clusters:         b.Clusters.Load(),
		ArtifactCount:    b.ArtifactCount.Load(),
		ArtifactBytes:    b.ArtifactBytes.Load(),
		ArtifactFailures: b.ArtifactFailures.Load(),
		Errors:           b.Errors.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadRows         int64
	LoadMarkers      int64
	LoadNanos        int64
	SearchNanos      int64
	GraphEdges       int64
	GraphNanos       int64
	PartitionNanos   int64
	Clusters         int64
	ArtifactCount    int64
	ArtifactBytes    int64
	ArtifactFailures int64
	Errors           int64
}
