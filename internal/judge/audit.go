package judge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// Audit outcome markers.
const (
	OutcomeApproved     = "approved"
	OutcomeDeclined     = "declined"
	OutcomeParseFailure = "parse_failure"
	OutcomeCallFailure  = "call_failure"
)

// AuditEntry is one line of the append-only judge audit log: the full request
// text, the raw response, and the parsed outcome (or failure marker).
type AuditEntry struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	CrawlID     int64     `json:"crawl_id"`
	ABN         string    `json:"abn"`
	Request     string    `json:"request"`
	RawResponse string    `json:"raw_response"`
	Outcome     string    `json:"outcome"`
	Verdict     *Verdict  `json:"verdict,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// AuditLog appends one JSONL entry per judge invocation, regardless of
// outcome. Entries are flushed per write so an aborted run keeps everything
// already reviewed.
type AuditLog struct {
	f   *os.File
	enc *json.Encoder
}

// OpenAuditLog opens (or creates) the audit log file in append mode.
func OpenAuditLog(path string) (*AuditLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "judge: create audit log dir %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "judge: open audit log %s", path)
	}

	return &AuditLog{f: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one entry as a single JSON line.
func (l *AuditLog) Append(e AuditEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := l.enc.Encode(e); err != nil {
		return eris.Wrap(err, "judge: append audit entry")
	}
	return nil
}

// Close closes the underlying file.
func (l *AuditLog) Close() error {
	return l.f.Close()
}
