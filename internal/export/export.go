// Package export hands raw partition files to the user, one by one or as a
// zip archive.
package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/periods"
)

// ErrNoFiles means no partition lies within the requested period.
var ErrNoFiles = errors.New("no partitions in period")

// Source locates partition files.
type Source interface {
	Partitions() ([]ledger.Partition, error)
	Path(p ledger.Partition) string
}

// Sender delivers files to a chat.
type Sender interface {
	File(ctx context.Context, chatID int64, path, caption string) error
	Text(ctx context.Context, chatID int64, text string) error
}

// Failure records one file that could not be delivered.
type Failure struct {
	Name string
	Err  error
}

// Result summarizes a delivery.
type Result struct {
	Sent   []string
	Failed []Failure
}

// Select returns the partitions of rng in chronological order.
func Select(src Source, rng periods.Range) ([]ledger.Partition, error) {
	parts, err := src.Partitions()
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	selected := rng.Filter(parts)
	if len(selected) == 0 {
		return nil, ErrNoFiles
	}
	return selected, nil
}

// Deliver sends every partition as a document. A failed file is reported to
// the user and the rest are still sent; only a failure to report returns an
// error.
func Deliver(ctx context.Context, out Sender, chatID int64, src Source, parts []ledger.Partition, log zerolog.Logger) (Result, error) {
	var res Result
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := out.File(ctx, chatID, src.Path(p), p.Key()); err != nil {
			log.Error().Err(err).Str("partition", p.Name).Msg("file delivery failed")
			res.Failed = append(res.Failed, Failure{Name: p.Name, Err: err})
			if err := out.Text(ctx, chatID, fmt.Sprintf("Не удалось отправить файл %s.", p.Name)); err != nil {
				return res, err
			}
			continue
		}
		res.Sent = append(res.Sent, p.Name)
	}
	return res, nil
}

// Archive writes the partitions into a zip stream.
func Archive(w io.Writer, src Source, parts []ledger.Partition) error {
	zw := zip.NewWriter(w)
	for _, p := range parts {
		if err := addFile(zw, src.Path(p), p.Name); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("copying %s: %w", name, err)
	}
	return nil
}

// ArchiveName is a unique default file name for the archive of rng.
func ArchiveName(rng periods.Range) string {
	return fmt.Sprintf("moneybot_%s_%s.zip", rng.Code(), uuid.NewString()[:8])
}
