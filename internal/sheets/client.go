// Package sheets mirrors appended rows into a Google spreadsheet, one sheet
// per partition. Sync is best-effort and never blocks local persistence.
package sheets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Appender appends one row to a named sheet, creating the sheet if needed.
type Appender interface {
	AppendRow(ctx context.Context, sheet string, row []string) error
}

// SyncError wraps a failed remote call.
type SyncError struct {
	Op        string
	Sheet     string
	Retryable bool
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sheets %s %s: %v", e.Op, e.Sheet, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// ClientConfig configures a Client.
type ClientConfig struct {
	SpreadsheetID     string
	CredentialsFile   string
	CredentialsBase64 string
	Timeout           time.Duration
	Header            []string
}

// Client talks to one spreadsheet.
type Client struct {
	srv     *sheets.Service
	id      string
	timeout time.Duration
	header  []string

	mu    sync.Mutex
	known map[string]bool
}

// NewClient authorizes with a service account key, given either as a file or
// base64-encoded JSON.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	key, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	jwt, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return newClient(srv, cfg), nil
}

func newClient(srv *sheets.Service, cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		srv:     srv,
		id:      cfg.SpreadsheetID,
		timeout: timeout,
		header:  cfg.Header,
		known:   make(map[string]bool),
	}
}

func credentials(cfg ClientConfig) ([]byte, error) {
	switch {
	case cfg.CredentialsBase64 != "":
		key, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 credentials: %w", err)
		}
		return key, nil
	case cfg.CredentialsFile != "":
		key, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
		return key, nil
	default:
		return nil, errors.New("no service account credentials configured")
	}
}

// AppendRow makes sure sheet exists with the header row, then appends row.
// The whole call is bounded by the client timeout.
func (c *Client) AppendRow(ctx context.Context, sheet string, row []string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{values(row)}}
	_, err := c.srv.Spreadsheets.Values.Append(c.id, a1(sheet, "A1"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrap("append", sheet, err)
	}
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	c.mu.Lock()
	ok := c.known[sheet]
	c.mu.Unlock()
	if ok {
		return nil
	}

	ss, err := c.srv.Spreadsheets.Get(c.id).Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
	if err != nil {
		return wrap("get", sheet, err)
	}
	var props *sheets.SheetProperties
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			props = s.Properties
			break
		}
	}

	if props == nil {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheet}},
			}},
		}
		resp, err := c.srv.Spreadsheets.BatchUpdate(c.id, req).Context(ctx).Do()
		if err != nil {
			return wrap("add sheet", sheet, err)
		}
		props = &sheets.SheetProperties{Title: sheet}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
			props = resp.Replies[0].AddSheet.Properties
		}
	}

	if len(c.header) > 0 {
		if err := c.ensureHeader(ctx, props); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.known[sheet] = true
	c.mu.Unlock()
	return nil
}

// ensureHeader writes the header into row 1. A non-empty row 1 that is not
// the header is pushed down first so no mirrored row is overwritten.
func (c *Client) ensureHeader(ctx context.Context, props *sheets.SheetProperties) error {
	sheet := props.Title
	resp, err := c.srv.Spreadsheets.Values.Get(c.id, a1(sheet, "1:1")).Context(ctx).Do()
	if err != nil {
		return wrap("read header", sheet, err)
	}
	if len(resp.Values) > 0 && sameRow(resp.Values[0], c.header) {
		return nil
	}

	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				InsertDimension: &sheets.InsertDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:         props.SheetId,
						Dimension:       "ROWS",
						StartIndex:      0,
						EndIndex:        1,
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			}},
		}
		if _, err := c.srv.Spreadsheets.BatchUpdate(c.id, req).Context(ctx).Do(); err != nil {
			return wrap("insert header row", sheet, err)
		}
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{values(c.header)}}
	_, err = c.srv.Spreadsheets.Values.Update(c.id, a1(sheet, "A1"), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return wrap("write header", sheet, err)
	}
	return nil
}

func a1(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", sheet, cells)
}

func values(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func sameRow(got []interface{}, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if fmt.Sprint(got[i]) != want[i] {
			return false
		}
	}
	return true
}

// wrap classifies err: rate limits, server errors and timeouts are retryable.
func wrap(op, sheet string, err error) error {
	retryable := errors.Is(err, context.DeadlineExceeded)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		retryable = gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}
	return &SyncError{Op: op, Sheet: sheet, Retryable: retryable, Err: err}
}
