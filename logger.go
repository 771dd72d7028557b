package cellclust

import (
	"time"

	"go.uber.org/zap"
)

// Logger wraps zap.Logger with pipeline-specific helpers.
// This provides structured logging with consistent field names across stages.
type Logger struct {
	*zap.Logger
}

// NewLogger creates a new Logger backed by the given zap logger.
// If base is nil, logging is disabled.
func NewLogger(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{Logger: base}
}

// NewVerboseLogger creates a Logger that prints human-readable progress to
// stderr at debug level. Used by the CLI's -v flag.
func NewVerboseLogger() *Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{Logger: base}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithRunID tags all subsequent log entries with the run identifier.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("run_id", id))}
}

// LogLoad logs the outcome of the feature table load stage.
func (l *Logger) LogLoad(path string, rows, markers int, transformed bool, err error) {
	if err != nil {
		l.Error("load failed",
			zap.String("input", path),
			zap.Error(err),
		)
		return
	}
	l.Debug("load completed",
		zap.String("input", path),
		zap.Int("cells", rows),
		zap.Int("markers", markers),
		zap.Bool("log_transformed", transformed),
	)
}

// LogNeighborSearch logs the outcome of the neighbor search stage.
func (l *Logger) LogNeighborSearch(mode string, k int, duration time.Duration, err error) {
	if err != nil {
		l.Error("neighbor search failed",
			zap.String("mode", mode),
			zap.Int("k", k),
			zap.Error(err),
		)
		return
	}
	l.Debug("neighbor search completed",
		zap.String("mode", mode),
		zap.Int("k", k),
		zap.Duration("took", duration),
	)
}

// LogGraphBuild logs the outcome of the similarity graph build stage.
func (l *Logger) LogGraphBuild(strategy string, vertices, edges int, err error) {
	if err != nil {
		l.Error("graph build failed",
			zap.String("weight", strategy),
			zap.Error(err),
		)
		return
	}
	l.Debug("graph build completed",
		zap.String("weight", strategy),
		zap.Int("vertices", vertices),
		zap.Int("edges", edges),
	)
}

// LogPartition logs the outcome of the community detection stage.
func (l *Logger) LogPartition(clusters, levels, passes int, modularity float64, err error) {
	if err != nil {
		l.Error("community detection failed",
			zap.Error(err),
		)
		return
	}
	l.Info("community detection completed",
		zap.Int("clusters", clusters),
		zap.Int("levels", levels),
		zap.Int("passes", passes),
		zap.Float64("modularity", modularity),
	)
}

// LogArtifact logs a written output artifact.
func (l *Logger) LogArtifact(name string, bytes int64, err error) {
	if err != nil {
		l.Error("artifact write failed",
			zap.String("artifact", name),
			zap.Error(err),
		)
		return
	}
	l.Debug("artifact written",
		zap.String("artifact", name),
		zap.Int64("bytes", bytes),
	)
}
