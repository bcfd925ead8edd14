package ingest

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/db"
)

// cdxMeta is the JSON tail of a CDX index line. Only the fields the loader
// filters on are decoded.
type cdxMeta struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	MIME   string `json:"mime"`
}

// CDXLoader loads gzipped Common Crawl CDX index shards into raw_commoncrawl.
// Company names are best-effort derivations from the domain label, so the
// staged names from this path are low-signal by construction.
type CDXLoader struct {
	pool       db.Pool
	batchSize  int
	batchID    string
	maxRecords int
}

// NewCDXLoader creates a CDXLoader. maxRecords caps the rows taken from the
// shard; zero or less means no cap.
func NewCDXLoader(pool db.Pool, batchSize int, batchID string, maxRecords int) *CDXLoader {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &CDXLoader{pool: pool, batchSize: batchSize, batchID: batchID, maxRecords: maxRecords}
}

// LoadShard replaces raw_commoncrawl with successfully fetched HTML pages
// from the CDX shard at path, one row per distinct domain. Returns the number
// of rows loaded.
func (l *CDXLoader) LoadShard(ctx context.Context, path string) (int64, error) {
	log := zap.L().With(zap.String("component", "ingest.cdx"))

	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open cdx shard %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: gunzip cdx shard %s", path)
	}
	defer gz.Close()

	if err := db.Truncate(ctx, l.pool, "raw_commoncrawl"); err != nil {
		return 0, err
	}

	var total int64
	var taken int
	seen := make(map[string]struct{})
	batch := make([][]any, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := db.CopyFrom(ctx, l.pool, "raw_commoncrawl", rawCrawlColumns, batch)
		if err != nil {
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return total, eris.Wrap(ctx.Err(), "ingest: cdx scan cancelled")
		}
		if l.maxRecords > 0 && taken >= l.maxRecords {
			break
		}

		// urlkey timestamp {json}
		parts := strings.SplitN(scanner.Text(), " ", 3)
		if len(parts) != 3 {
			continue
		}
		var meta cdxMeta
		if err := json.Unmarshal([]byte(parts[2]), &meta); err != nil {
			continue
		}
		if meta.Status != "200" || !strings.HasPrefix(meta.MIME, "text/html") {
			continue
		}

		domain := DomainFromURL(meta.URL)
		if domain == "" {
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		name := DeriveNameFromDomain(domain)
		if name == "" {
			continue
		}
		seen[domain] = struct{}{}
		taken++

		batch = append(batch, []any{l.batchID, meta.URL, domain, name, ""})
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return total, eris.Wrapf(err, "ingest: scan cdx shard %s", path)
	}

	if err := flush(); err != nil {
		return total, err
	}

	log.Info("cdx shard loaded",
		zap.Int64("rows", total),
		zap.String("crawl_id", l.batchID))
	return total, nil
}

// DeriveNameFromDomain turns the leftmost domain label into an uppercase
// candidate company name, with punctuation collapsed to single spaces.
// "acme-widgets.com.au" becomes "ACME WIDGETS".
func DeriveNameFromDomain(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	var b strings.Builder
	lastSpace := true
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
