package sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	tests := []struct {
		dest   string
		remote bool
	}{
		{dest: "s3://bucket/run", remote: true},
		{dest: "minio://localhost:9000/bucket", remote: true},
		{dest: "minios://minio.example.com:9000/bucket/run", remote: true},
		{dest: "/data/out", remote: false},
		{dest: "out", remote: false},
		{dest: "", remote: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.remote, IsRemote(tt.dest), tt.dest)
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(context.Background(), dir)
	require.NoError(t, err)

	local, ok := s.(*Local)
	require.True(t, ok)
	assert.Equal(t, dir, local.Root())
}

func TestOpenLocalIgnoresRateLimit(t *testing.T) {
	// Local destinations are never throttled.
	s, err := Open(context.Background(), t.TempDir(), func(o *Options) {
		o.RateLimit = 1 << 20
	})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)
}

func TestOpenMinio(t *testing.T) {
	s, err := Open(context.Background(), "minio://localhost:9000/cellclust/run42")
	require.NoError(t, err)
	assert.IsType(t, &Minio{}, s)
}

func TestOpenMinioThrottled(t *testing.T) {
	s, err := Open(context.Background(), "minio://localhost:9000/cellclust", func(o *Options) {
		o.RateLimit = 1 << 20
	})
	require.NoError(t, err)
	assert.IsType(t, &throttled{}, s)
}

func TestOpenInvalidDestination(t *testing.T) {
	tests := []struct {
		name string
		dest string
	}{
		{name: "MinioNoBucket", dest: "minio://localhost:9000"},
		{name: "MinioEmptyBucket", dest: "minio://localhost:9000/"},
		{name: "MinioEmptyHost", dest: "minio:///bucket"},
		{name: "MinioBare", dest: "minio://"},
		{name: "MiniosNoBucket", dest: "minios://localhost:9000"},
		{name: "S3Bare", dest: "s3://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.dest)
			require.Error(t, err)
			assert.ErrorContains(t, err, "invalid destination")
		})
	}
}

// memSink collects artifacts in memory for throttle tests.
type memSink struct {
	mu    sync.Mutex
	files map[string]*bytes.Buffer
}

func newMemSink() *memSink {
	return &memSink{files: make(map[string]*bytes.Buffer)}
}

func (s *memSink) Create(_ context.Context, name string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := &bytes.Buffer{}
	s.files[name] = buf
	return nopCloser{buf}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type errSink struct{ err error }

func (s errSink) Create(context.Context, string) (io.WriteCloser, error) {
	return nil, s.err
}

func TestThrottledPassThrough(t *testing.T) {
	mem := newMemSink()
	s := newThrottled(mem, 1<<20)

	w, err := s.Create(context.Background(), "edges.bin")
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0xAB, 0xCD}, 2048)
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	require.NoError(t, w.Close())

	// Confirm the throttle forwards bytes unchanged.
	assert.Equal(t, payload, mem.files["edges.bin"].Bytes())
}

func TestThrottledWriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newThrottled(newMemSink(), 1<<20)
	w, err := s.Create(ctx, "edges.bin")
	require.NoError(t, err)

	cancel()
	_, err = w.Write([]byte("payload"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottledCreateError(t *testing.T) {
	want := errors.New("bucket gone")
	s := newThrottled(errSink{err: want}, 1<<20)

	_, err := s.Create(context.Background(), "edges.bin")
	assert.ErrorIs(t, err, want)
}

func TestS3WriterCloseGuards(t *testing.T) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, _ = io.Copy(io.Discard, pr)
		done <- nil
	}()

	b := &s3Writer{pw: pw, done: done}
	_, err := b.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	// Confirm writes and repeated closes after Close are rejected.
	_, err = b.Write([]byte("more"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.ErrorIs(t, b.Close(), io.ErrClosedPipe)
}

func TestMinioWriterCloseGuards(t *testing.T) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, _ = io.Copy(io.Discard, pr)
		done <- nil
	}()

	b := &minioWriter{pw: pw, done: done}
	_, err := b.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = b.Write([]byte("more"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.ErrorIs(t, b.Close(), io.ErrClosedPipe)
}

func TestMinioWriterUploadError(t *testing.T) {
	want := errors.New("connection refused")
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, _ = io.Copy(io.Discard, pr)
		done <- want
	}()

	b := &minioWriter{pw: pw, done: done}
	_, err := b.Write([]byte("payload"))
	require.NoError(t, err)

	// Confirm an upload failure surfaces on Close.
	assert.ErrorIs(t, b.Close(), want)
}
