package sink

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio streams artifacts to a MinIO or other S3-compatible endpoint.
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinio creates a MinIO sink. Credentials come from the MINIO_ACCESS_KEY
// and MINIO_SECRET_KEY environment variables.
func NewMinio(endpoint, bucket, prefix string, secure bool) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvMinio(),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &Minio{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Create starts a streaming upload for the named artifact. Passing size -1
// lets the client chunk the stream; the object is committed on Close.
func (s *Minio) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	key := path.Join(s.prefix, name)
	pr, pw := io.Pipe()

	blob := &minioWriter{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

type minioWriter struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

func (b *minioWriter) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

func (b *minioWriter) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}
