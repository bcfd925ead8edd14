package ingest

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/db"
)

var rawCrawlColumns = []string{"crawl_id", "url", "domain", "company_name", "industry"}

// CrawlLoader loads crawl company exports into raw_commoncrawl.
type CrawlLoader struct {
	pool      db.Pool
	batchSize int
	batchID   string
}

// NewCrawlLoader creates a CrawlLoader tagging every row with batchID.
func NewCrawlLoader(pool db.Pool, batchSize int, batchID string) *CrawlLoader {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &CrawlLoader{pool: pool, batchSize: batchSize, batchID: batchID}
}

// LoadCSV replaces raw_commoncrawl with the export at path. The file must
// have a header row naming at least url and company_name; domain and industry
// are optional, with domain derived from the URL when absent. Rows missing a
// url, a name, or a resolvable domain are skipped. Returns the number of rows
// loaded.
func (l *CrawlLoader) LoadCSV(ctx context.Context, path string) (int64, error) {
	log := zap.L().With(zap.String("component", "ingest.crawl"))

	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open crawl csv %s", path)
	}
	defer f.Close()

	// Cancelling unblocks the stream goroutine on early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{TrimSpace: true})

	var cols map[string]int
	field := func(row []string, name string) string {
		i, found := cols[name]
		if !found || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var total int64
	var skipped int
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

	for row := range rowCh {
		if cols == nil {
			cols = make(map[string]int, len(row))
			for i, name := range row {
				cols[strings.ToLower(name)] = i
			}
			for _, required := range []string{"url", "company_name"} {
				if _, found := cols[required]; !found {
					return 0, eris.Errorf("ingest: crawl csv missing column %q", required)
				}
			}
			if err := db.Truncate(ctx, l.pool, "raw_commoncrawl"); err != nil {
				return 0, err
			}
			continue
		}

		pageURL := field(row, "url")
		name := field(row, "company_name")
		if pageURL == "" || name == "" {
			skipped++
			continue
		}
		domain := field(row, "domain")
		if domain == "" {
			domain = DomainFromURL(pageURL)
		}
		// A row without a resolvable domain has no identity downstream.
		if domain == "" {
			skipped++
			continue
		}
		batch = append(batch, []any{l.batchID, pageURL, domain, name, field(row, "industry")})
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if streamErr := <-errCh; streamErr != nil {
		return total, eris.Wrap(streamErr, "ingest: stream crawl csv")
	}
	if cols == nil {
		return 0, eris.Errorf("ingest: crawl csv %s is empty", path)
	}

	if err := flush(); err != nil {
		return total, err
	}

	log.Info("crawl export loaded",
		zap.Int64("rows", total),
		zap.Int("skipped", skipped),
		zap.String("crawl_id", l.batchID))
	return total, nil
}

// DomainFromURL extracts the registrable host from a page URL, dropping any
// leading www-style label and port.
func DomainFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "m.", "web."} {
		if strings.HasPrefix(host, prefix) && strings.Count(host, ".") > 1 {
			host = strings.TrimPrefix(host, prefix)
			break
		}
	}
	return host
}
