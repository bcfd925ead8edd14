package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/db"
	"github.com/firmable/unify/internal/model"
)

// Source reads matching inputs from the staged tables.
type Source struct {
	pool db.Pool
}

// New creates a Source backed by the given pool.
func New(pool db.Pool) *Source {
	return &Source{pool: pool}
}

// RegistrySampleSQL builds the registry sample query. Only active entities
// with a known state take part in matching; the policy filters on the numeric
// ABN so the sample is stable across runs.
func RegistrySampleSQL(policy SamplingPolicy) string {
	return fmt.Sprintf(`
SELECT abn,
       COALESCE(entity_name_norm, ''),
       COALESCE(entity_name_raw, ''),
       COALESCE(entity_type, ''),
       COALESCE(entity_status, ''),
       COALESCE(address_full, ''),
       COALESCE(suburb, ''),
       COALESCE(postcode, ''),
       COALESCE(state, ''),
       COALESCE(start_date_raw, '')
FROM stg_abr_entities
WHERE state IS NOT NULL
  AND entity_status = 'ACT'
  AND %s
ORDER BY abn`, policy.Predicate("abn::bigint"))
}

// CrawlSampleSQL builds the crawl sample query. Ordering by commoncrawl_id
// fixes the order in which ambiguous pairs reach judge review.
func CrawlSampleSQL(policy SamplingPolicy) string {
	return fmt.Sprintf(`
SELECT commoncrawl_id,
       COALESCE(crawl_id, ''),
       COALESCE(url, ''),
       COALESCE(domain, ''),
       COALESCE(company_name_norm, ''),
       COALESCE(industry, '')
FROM stg_commoncrawl_companies
WHERE %s
ORDER BY commoncrawl_id`, policy.Predicate("commoncrawl_id"))
}

// RegistrySample loads the registry slice selected by policy.
func (s *Source) RegistrySample(ctx context.Context, policy SamplingPolicy) ([]model.RegistryRecord, error) {
	rows, err := s.pool.Query(ctx, RegistrySampleSQL(policy))
	if err != nil {
		return nil, eris.Wrap(err, "source: query registry sample")
	}
	defer rows.Close()

	var out []model.RegistryRecord
	for rows.Next() {
		var r model.RegistryRecord
		if err := rows.Scan(&r.ABN, &r.NameNorm, &r.NameRaw, &r.EntityType, &r.EntityStatus,
			&r.AddressFull, &r.Suburb, &r.Postcode, &r.State, &r.StartDateRaw); err != nil {
			return nil, eris.Wrap(err, "source: scan registry record")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate registry sample")
	}

	zap.L().With(zap.String("component", "source")).Info("registry sample loaded",
		zap.Int("records", len(out)))
	return out, nil
}

// CrawlSample loads the crawl slice selected by policy.
func (s *Source) CrawlSample(ctx context.Context, policy SamplingPolicy) ([]model.CrawlRecord, error) {
	rows, err := s.pool.Query(ctx, CrawlSampleSQL(policy))
	if err != nil {
		return nil, eris.Wrap(err, "source: query crawl sample")
	}
	defer rows.Close()

	var out []model.CrawlRecord
	for rows.Next() {
		var c model.CrawlRecord
		if err := rows.Scan(&c.ID, &c.BatchID, &c.URL, &c.Domain, &c.NameNorm, &c.Industry); err != nil {
			return nil, eris.Wrap(err, "source: scan crawl record")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate crawl sample")
	}

	zap.L().With(zap.String("component", "source")).Info("crawl sample loaded",
		zap.Int("records", len(out)))
	return out, nil
}
