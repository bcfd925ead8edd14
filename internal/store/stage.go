package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/db"
)

// StageRegistrySQL returns the raw-to-staging transform for registry
// entities. Names are uppercased with whitespace collapsed, and duplicate
// ABNs in the raw feed collapse to a single staged row.
func StageRegistrySQL() string {
	return `
INSERT INTO stg_abr_entities (
    abn, entity_name_norm, entity_name_raw, entity_type, entity_status,
    suburb, postcode, state, start_date_raw
)
SELECT DISTINCT ON (abn)
    abn,
    TRIM(REGEXP_REPLACE(UPPER(entity_name), '\s+', ' ', 'g')),
    entity_name,
    NULLIF(COALESCE(entity_type_text, entity_type_code), ''),
    NULLIF(abn_status, ''),
    NULL,
    NULLIF(postcode, ''),
    NULLIF(state, ''),
    NULLIF(abn_status_from_date, '')
FROM raw_abr
WHERE abn <> '' AND entity_name <> ''
ORDER BY abn
ON CONFLICT (abn) DO UPDATE SET
    entity_name_norm = EXCLUDED.entity_name_norm,
    entity_name_raw  = EXCLUDED.entity_name_raw,
    entity_type      = EXCLUDED.entity_type,
    entity_status    = EXCLUDED.entity_status,
    suburb           = EXCLUDED.suburb,
    postcode         = EXCLUDED.postcode,
    state            = EXCLUDED.state,
    start_date_raw   = EXCLUDED.start_date_raw`
}

// StageCrawlSQL returns the raw-to-staging transform for crawl companies.
func StageCrawlSQL() string {
	return `
INSERT INTO stg_commoncrawl_companies (
    commoncrawl_id, crawl_id, url, domain, company_name_norm, industry
)
SELECT
    commoncrawl_id,
    NULLIF(crawl_id, ''),
    NULLIF(url, ''),
    NULLIF(domain, ''),
    TRIM(REGEXP_REPLACE(UPPER(company_name), '\s+', ' ', 'g')),
    NULLIF(industry, '')
FROM raw_commoncrawl
WHERE company_name IS NOT NULL AND company_name <> ''
ON CONFLICT (commoncrawl_id) DO UPDATE SET
    crawl_id          = EXCLUDED.crawl_id,
    url               = EXCLUDED.url,
    domain            = EXCLUDED.domain,
    company_name_norm = EXCLUDED.company_name_norm,
    industry          = EXCLUDED.industry`
}

// Stager runs the raw-to-staging transforms.
type Stager struct {
	pool db.Pool
}

// NewStager creates a Stager backed by the given pool.
func NewStager(pool db.Pool) *Stager {
	return &Stager{pool: pool}
}

// StageRegistry transforms raw_abr into stg_abr_entities. Returns the number
// of staged rows.
func (s *Stager) StageRegistry(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, StageRegistrySQL())
	if err != nil {
		return 0, eris.Wrap(err, "store: stage registry entities")
	}
	n := tag.RowsAffected()
	zap.L().With(zap.String("component", "store.stage")).Info("registry staged",
		zap.Int64("rows", n))
	return n, nil
}

// StageCrawl transforms raw_commoncrawl into stg_commoncrawl_companies.
// Returns the number of staged rows.
func (s *Stager) StageCrawl(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, StageCrawlSQL())
	if err != nil {
		return 0, eris.Wrap(err, "store: stage crawl companies")
	}
	n := tag.RowsAffected()
	zap.L().With(zap.String("component", "store.stage")).Info("crawl staged",
		zap.Int64("rows", n))
	return n, nil
}
