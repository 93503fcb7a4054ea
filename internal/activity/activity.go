// Package activity keeps an append-only CSV trail of completed user actions.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Actions written by the bot.
const (
	ActionRecorded   = "recorded"
	ActionReport     = "report"
	ActionInsights   = "insights"
	ActionExport     = "export"
	ActionSyncFailed = "sync_failed"
)

// Event is one row in the activity log.
type Event struct {
	Timestamp time.Time
	UserID    int64
	Flow      string
	Action    string
	Details   string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,user_id,flow,action,details"

const (
	numFields  = 5
	logDir     = "logs"
	logName    = "activity.csv"
	colTime    = 0
	colUser    = 1
	colFlow    = 2
	colAction  = 3
	colDetails = 4
)

// MarshalEvent converts an Event to a CSV row.
func MarshalEvent(e Event) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colUser] = strconv.FormatInt(e.UserID, 10)
	row[colFlow] = e.Flow
	row[colAction] = e.Action
	row[colDetails] = e.Details
	return row
}

// UnmarshalEvent converts a CSV row to an Event.
func UnmarshalEvent(record []string) (Event, error) {
	if len(record) != numFields {
		return Event{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Event{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}
	user, err := strconv.ParseInt(record[colUser], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("parsing user id %q: %w", record[colUser], err)
	}
	return Event{
		Timestamp: ts,
		UserID:    user,
		Flow:      record[colFlow],
		Action:    record[colAction],
		Details:   record[colDetails],
	}, nil
}

// Log appends events to <dataDir>/logs/activity.csv.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a Log under dataDir. Nothing is written until Record.
func New(dataDir string) *Log {
	return &Log{
		path: filepath.Join(dataDir, logDir, logName),
		now:  time.Now,
	}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Record appends e, stamping it with the current time when unset. The file
// and header are created on first use.
func (l *Log) Record(e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalEvent(e)); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all events. A missing file yields no events.
func (l *Log) Read() ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEvents(f)
}

func readEvents(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var events []Event
	for i, rec := range records[1:] {
		e, err := UnmarshalEvent(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		events = append(events, e)
	}
	return events, nil
}
