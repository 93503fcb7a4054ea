package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores objects in one Cloud Storage bucket. Credentials come from the
// client options or Application Default Credentials.
type GCS struct {
	client  *storage.Client
	bucket  string
	timeout time.Duration
}

// NewGCS opens a storage client for bucket.
func NewGCS(ctx context.Context, bucket string, timeout time.Duration, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("backup bucket not configured")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GCS{client: client, bucket: bucket, timeout: timeout}, nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Put uploads r to object.
func (g *GCS) Put(ctx context.Context, object string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy %s to GCS writer: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload of %s: %w", object, err)
	}
	return nil
}

// Get opens object for reading. The caller closes the reader.
func (g *GCS) Get(ctx context.Context, object string) (io.ReadCloser, error) {
	rc, err := g.client.Bucket(g.bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %s: %w", object, ErrNotFound)
		}
		return nil, fmt.Errorf("reading object %s/%s: %w", g.bucket, object, err)
	}
	return rc, nil
}

// List returns the object names under prefix.
func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", g.bucket, prefix, err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// URI returns the gs:// address of object.
func (g *GCS) URI(object string) string {
	return "gs://" + g.bucket + "/" + object
}
