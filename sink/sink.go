// Package sink abstracts where run artifacts land: a local directory, an
// S3 bucket, or a MinIO-compatible endpoint.
//
// Destinations are selected by URI:
//
//	/path/to/dir                    local directory
//	s3://bucket/prefix              Amazon S3 (credentials from the default chain)
//	minio://host:port/bucket/prefix MinIO over HTTP (credentials from MINIO_* env)
//	minios://host:port/bucket/prefix MinIO over HTTPS
//
// All writers stream; an artifact becomes visible only after a successful
// Close. Remote uploads can be throttled with a byte-per-second rate limit.
package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/time/rate"
)

// Sink writes named artifacts to a destination. Names use forward slashes
// regardless of platform.
type Sink interface {
	// Create opens a streaming writer for the named artifact. The
	// artifact becomes visible only after a successful Close; a failed
	// Close leaves no artifact behind.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// Options configures Open.
type Options struct {
	// RateLimit throttles uploads in bytes per second. Zero disables the
	// throttle. Local destinations are never throttled.
	RateLimit int64
}

// DefaultOptions holds the defaults applied by Open.
var DefaultOptions = Options{}

// IsRemote reports whether dest names an object store rather than a local
// directory.
func IsRemote(dest string) bool {
	return strings.HasPrefix(dest, "s3://") ||
		strings.HasPrefix(dest, "minio://") ||
		strings.HasPrefix(dest, "minios://")
}

// Open builds the Sink for a destination URI.
func Open(ctx context.Context, dest string, optFns ...func(o *Options)) (Sink, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		s   Sink
		err error
	)
	switch {
	case strings.HasPrefix(dest, "s3://"):
		bucket, prefix, perr := splitBucketURI(dest, "s3://")
		if perr != nil {
			return nil, perr
		}
		s, err = NewS3(ctx, bucket, prefix)
	case strings.HasPrefix(dest, "minio://"):
		s, err = openMinio(dest, "minio://", false)
	case strings.HasPrefix(dest, "minios://"):
		s, err = openMinio(dest, "minios://", true)
	default:
		return NewLocal(dest), nil
	}
	if err != nil {
		return nil, err
	}

	if opts.RateLimit > 0 {
		s = newThrottled(s, opts.RateLimit)
	}
	return s, nil
}

func openMinio(dest, scheme string, secure bool) (Sink, error) {
	rest := strings.TrimPrefix(dest, scheme)
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid destination %q: want %shost:port/bucket[/prefix]", dest, scheme)
	}
	prefix := ""
	if len(parts) == 3 {
		prefix = parts[2]
	}
	return NewMinio(parts[0], parts[1], prefix, secure)
}

func splitBucketURI(dest, scheme string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(dest, scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid destination %q: want %sbucket[/prefix]", dest, scheme)
	}
	return bucket, prefix, nil
}

// throttled decorates a Sink with a shared upload rate limit. The limiter
// spans all artifacts of the sink, so concurrent writers share the budget.
type throttled struct {
	inner Sink
	lim   *rate.Limiter
}

func newThrottled(inner Sink, bytesPerSec int64) *throttled {
	return &throttled{
		inner: inner,
		lim:   rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec)),
	}
}

func (t *throttled) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	w, err := t.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &throttledWriter{ctx: ctx, w: w, lim: t.lim}, nil
}

type throttledWriter struct {
	ctx context.Context
	w   io.WriteCloser
	lim *rate.Limiter
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		chunk := len(p)
		if burst := t.lim.Burst(); chunk > burst {
			chunk = burst
		}
		if err := t.lim.WaitN(t.ctx, chunk); err != nil {
			return total, err
		}
		n, err := t.w.Write(p[:chunk])
		total += n
		if err != nil {
			return total, err
		}
		p = p[chunk:]
	}
	return total, nil
}

func (t *throttledWriter) Close() error { return t.w.Close() }
