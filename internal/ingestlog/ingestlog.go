package ingestlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pinehill-dev/pinehill/internal/ingest"
)

// Entry is one row in the ingest log.
type Entry struct {
	Timestamp time.Time
	EventID   string
	Source    string
	Outcome   string
	RecordID  int64 // payment or expense id; 0 when nothing was written
	Details   string
}

// Header is the CSV header for ingest-log.csv.
const Header = "timestamp,event_id,source,outcome,record_id,details"

const (
	numFields   = 6
	logDir      = "logs"
	logFile     = "logs/ingest-log.csv"
	colTime     = 0
	colEventID  = 1
	colSource   = 2
	colOutcome  = 3
	colRecordID = 4
	colDetails  = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colEventID] = e.EventID
	row[colSource] = e.Source
	row[colOutcome] = e.Outcome
	if e.RecordID != 0 {
		row[colRecordID] = strconv.FormatInt(e.RecordID, 10)
	}
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	var recordID int64
	if s := record[colRecordID]; s != "" {
		recordID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing record id %q: %w", s, err)
		}
	}

	return Entry{
		Timestamp: ts,
		EventID:   record[colEventID],
		Source:    record[colSource],
		Outcome:   record[colOutcome],
		RecordID:  recordID,
		Details:   record[colDetails],
	}, nil
}

// FromResult builds the log entry for one pipeline result.
func FromResult(at time.Time, r ingest.Result) Entry {
	e := Entry{
		Timestamp: at,
		EventID:   r.EventID,
		Source:    r.Source,
		Outcome:   string(r.Outcome),
	}
	switch {
	case r.PaymentID != 0:
		e.RecordID = r.PaymentID
	case r.ExpenseID != 0:
		e.RecordID = r.ExpenseID
	}
	if n := r.Notification; n != nil {
		e.Details = fmt.Sprintf("%s %d %s %s %s", n.Direction, n.Amount, n.Date, n.Time, n.Party)
		e.Details = strings.TrimSpace(e.Details)
	}
	if r.Error != "" {
		e.Details = strings.TrimSpace(e.Details + " error: " + r.Error)
	}
	return e
}

// Append writes entries to <root>/logs/ingest-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/ingest-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ingest log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Writer appends pipeline results to the ingest log of a project directory.
// It serializes concurrent writers within the process.
type Writer struct {
	root string
	now  func() time.Time
	mu   sync.Mutex
}

// NewWriter returns a Writer for the project at root.
func NewWriter(root string) *Writer {
	return &Writer{root: root, now: time.Now}
}

// Record implements ingest.Recorder.
func (w *Writer) Record(_ context.Context, r ingest.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Append(w.root, []Entry{FromResult(w.now(), r)})
}
