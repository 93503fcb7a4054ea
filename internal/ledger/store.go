package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablemoney/moneybot/internal/model"
)

// Store keeps entries in one CSV file per calendar month under a single
// directory. Writes to the same partition are serialized.
type Store struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created lazily.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir:   dir,
		log:   log.With().Str("component", "ledger").Logger(),
		locks: make(map[string]*sync.Mutex),
	}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path of p.
func (s *Store) Path(p Partition) string {
	return filepath.Join(s.dir, p.Name)
}

// EnsurePartition makes sure the partition for date exists and starts with
// the required header, repairing the header in place when it does not.
func (s *Store) EnsurePartition(date time.Time) (Partition, error) {
	p := PartitionFor(date)
	unlock := s.lock(p.Name)
	defer unlock()

	if err := s.ensureHeader(p); err != nil {
		return Partition{}, err
	}
	return p, nil
}

// Record validates e and appends it to the partition of its own month.
func (s *Store) Record(e model.Entry) (Partition, error) {
	norm, err := Normalize(e)
	if err != nil {
		return Partition{}, err
	}
	p := PartitionFor(norm.Date)
	if err := s.Append(p, norm); err != nil {
		return Partition{}, err
	}
	return p, nil
}

// Append validates e and appends it as one row to p. Nothing is written when
// validation fails.
func (s *Store) Append(p Partition, e model.Entry) error {
	norm, err := Normalize(e)
	if err != nil {
		s.log.Warn().Err(err).Str("partition", p.Name).Msg("entry rejected")
		return err
	}
	if norm.Period() != p.Period {
		return &ValidationError{
			Field:  "date",
			Value:  norm.Date.Format(dateFormat),
			Reason: fmt.Sprintf("outside partition %s", p.Period),
		}
	}

	unlock := s.lock(p.Name)
	defer unlock()

	if err := s.ensureHeader(p); err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path(p), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening partition %s: %w", p.Name, err)
	}
	defer f.Close()

	if err := AppendEntries(f, []model.Entry{norm}); err != nil {
		return fmt.Errorf("appending to %s: %w", p.Name, err)
	}

	s.log.Debug().
		Str("partition", p.Name).
		Str("kind", string(norm.Kind)).
		Str("category", norm.Category).
		Msg("entry appended")
	return nil
}

// Read returns every entry of p. A missing partition reads as empty; a file
// that breaks the schema yields *MalformedPartitionError.
func (s *Store) Read(p Partition) ([]model.Entry, error) {
	f, err := os.Open(s.Path(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening partition %s: %w", p.Name, err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, &MalformedPartitionError{Name: p.Name, Err: err}
	}
	return entries, nil
}

// Partitions lists the partitions present on disk in chronological order.
// Files whose names do not follow the naming pattern are ignored.
func (s *Store) Partitions() ([]Partition, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}

	var parts []Partition
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		p, err := ParsePartitionName(de.Name())
		if err != nil {
			s.log.Debug().Str("file", de.Name()).Msg("not a partition, skipping")
			continue
		}
		parts = append(parts, p)
	}

	sort.Slice(parts, func(i, j int) bool {
		if c := parts[i].Period.Compare(parts[j].Period); c != 0 {
			return c < 0
		}
		return parts[i].Name < parts[j].Name
	})
	return parts, nil
}

func (s *Store) lock(name string) func() {
	s.mu.Lock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ensureHeader must be called with the partition lock held.
func (s *Store) ensureHeader(p Partition) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := s.Path(p)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.rewrite(p, nil)
	}
	if err != nil {
		return fmt.Errorf("opening partition %s: %w", p.Name, err)
	}

	records, err := newReader(f).ReadAll()
	f.Close()
	if err != nil {
		return &MalformedPartitionError{Name: p.Name, Err: err}
	}

	if len(records) > 0 && IsHeader(records[0]) {
		return s.terminate(p)
	}

	var rows [][]string
	if len(records) > 0 {
		s.log.Warn().Str("partition", p.Name).Strs("found", records[0]).Msg("repairing partition header")
		rows = append(repairFirst(records[0]), records[1:]...)
	}
	return s.rewrite(p, rows)
}

// terminate appends the final newline a hand-edited or downloaded partition
// may lack, so the next row does not run into the last one.
func (s *Store) terminate(p Partition) error {
	f, err := os.OpenFile(s.Path(p), os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("opening partition %s: %w", p.Name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat partition %s: %w", p.Name, err)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("reading partition %s: %w", p.Name, err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.WriteAt([]byte("\n"), info.Size()); err != nil {
		return fmt.Errorf("terminating partition %s: %w", p.Name, err)
	}
	s.log.Warn().Str("partition", p.Name).Msg("added missing final newline")
	return nil
}

// repairFirst decides what survives of a first record that is not the
// header. Only a digit-free record no wider than the header is dropped as a
// stale header; anything else may hold an entry and is kept.
func repairFirst(record []string) [][]string {
	if row, ok := splitGluedHeader(record); ok {
		return [][]string{row}
	}
	if looksLikeData(record) || len(record) > len(Header) || hasDigit(record) {
		return [][]string{record}
	}
	return nil
}

// splitGluedHeader recovers the entry written onto a header line that had no
// final newline: "...,Статус01.11.2024,зарплата,...".
func splitGluedHeader(record []string) ([]string, bool) {
	last := len(Header) - 1
	if len(record) != len(Header)+last {
		return nil, false
	}
	if !IsHeader(append(append([]string{}, record[:last]...), Header[last])) {
		return nil, false
	}
	glued := strings.TrimSpace(record[last])
	if !strings.HasPrefix(glued, Header[last]) {
		return nil, false
	}
	row := append([]string{strings.TrimPrefix(glued, Header[last])}, record[last+1:]...)
	return row, true
}

func hasDigit(record []string) bool {
	for _, cell := range record {
		if strings.ContainsAny(cell, "0123456789") {
			return true
		}
	}
	return false
}

// rewrite replaces the partition with the header followed by rows, going
// through a temporary file so readers never see a half-written partition.
func (s *Store) rewrite(p Partition, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, ".partition-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(p)); err != nil {
		return fmt.Errorf("replacing partition %s: %w", p.Name, err)
	}
	return nil
}

func looksLikeData(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := time.Parse(dateFormat, strings.TrimSpace(record[0]))
	return err == nil
}
