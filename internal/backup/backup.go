// Package backup copies ledger partitions to object storage and restores
// them into an empty data directory.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/ledger"
)

// ErrNotFound is returned by a Bucket for a missing object.
var ErrNotFound = errors.New("object not found")

// Bucket is the object storage the backup talks to.
type Bucket interface {
	Put(ctx context.Context, object string, r io.Reader) error
	Get(ctx context.Context, object string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Source lists local partitions.
type Source interface {
	Partitions() ([]ledger.Partition, error)
	Path(p ledger.Partition) string
}

// Result summarizes a run. Failed maps a partition or object name to its error.
type Result struct {
	Done   []string
	Failed map[string]error
}

func (r *Result) fail(name string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]error)
	}
	r.Failed[name] = err
}

// Backup pushes and pulls partitions under a key prefix.
type Backup struct {
	bucket Bucket
	prefix string
	log    zerolog.Logger
}

// New creates a Backup. prefix may be empty.
func New(bucket Bucket, prefix string, log zerolog.Logger) *Backup {
	return &Backup{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    log.With().Str("component", "backup").Logger(),
	}
}

// Object returns the object name of partition file name.
func (b *Backup) Object(name string) string {
	if b.prefix == "" {
		return name
	}
	return path.Join(b.prefix, name)
}

// Push uploads every partition. A failed partition does not stop the rest.
func (b *Backup) Push(ctx context.Context, src Source) (Result, error) {
	parts, err := src.Partitions()
	if err != nil {
		return Result{}, fmt.Errorf("listing partitions: %w", err)
	}

	var res Result
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := b.push(ctx, src.Path(p), b.Object(p.Name)); err != nil {
			b.log.Warn().Err(err).Str("partition", p.Name).Msg("backup failed")
			res.fail(p.Name, err)
			continue
		}
		res.Done = append(res.Done, p.Name)
	}

	b.log.Info().Int("uploaded", len(res.Done)).Int("failed", len(res.Failed)).Msg("backup finished")
	return res, nil
}

func (b *Backup) push(ctx context.Context, file, object string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open file %q: %w", file, err)
	}
	defer f.Close()
	return b.bucket.Put(ctx, object, f)
}

// Restore downloads partitions missing from dir. Existing local files are
// never overwritten and objects that are not partitions are ignored.
func (b *Backup) Restore(ctx context.Context, dir string) (Result, error) {
	prefix := b.prefix
	if prefix != "" {
		prefix += "/"
	}
	objects, err := b.bucket.List(ctx, prefix)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating data directory: %w", err)
	}

	var res Result
	for _, obj := range objects {
		name := path.Base(obj)
		if _, err := ledger.ParsePartitionName(name); err != nil {
			continue
		}
		dst := filepath.Join(dir, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := b.pull(ctx, obj, dst); err != nil {
			b.log.Warn().Err(err).Str("object", obj).Msg("restore failed")
			res.fail(obj, err)
			continue
		}
		res.Done = append(res.Done, name)
	}
	return res, nil
}

func (b *Backup) pull(ctx context.Context, object, dst string) error {
	rc, err := b.bucket.Get(ctx, object)
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		return fmt.Errorf("downloading %s: %w", object, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
