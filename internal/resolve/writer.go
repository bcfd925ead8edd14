// Package resolve persists accepted match decisions as unified company
// records with source lineage links.
package resolve

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/db"
	"github.com/firmable/unify/internal/match"
	"github.com/firmable/unify/internal/model"
)

const upsertUnifiedSQL = `
INSERT INTO company_unified (
    abn, unified_name, unified_name_norm, website_domain, website_url_sample,
    industry, entity_type, entity_status, address_full, suburb, postcode,
    state, start_date, match_confidence, match_method
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT ((COALESCE(abn, '')), (COALESCE(website_domain, '')))
DO UPDATE SET
    unified_name       = EXCLUDED.unified_name,
    unified_name_norm  = EXCLUDED.unified_name_norm,
    website_url_sample = EXCLUDED.website_url_sample,
    industry           = COALESCE(EXCLUDED.industry, company_unified.industry),
    entity_type        = EXCLUDED.entity_type,
    entity_status      = EXCLUDED.entity_status,
    address_full       = EXCLUDED.address_full,
    suburb             = EXCLUDED.suburb,
    postcode           = EXCLUDED.postcode,
    state              = EXCLUDED.state,
    start_date         = EXCLUDED.start_date,
    match_confidence   = EXCLUDED.match_confidence,
    match_method       = EXCLUDED.match_method
RETURNING company_id`

const insertLinkSQL = `
INSERT INTO company_source_link (company_id, source_system, source_key)
VALUES ($1, $2, $3)
ON CONFLICT (company_id, source_system, source_key) DO NOTHING`

// Writer upserts unified companies. Each pair is written in its own
// transaction so a failure never leaves a company without its lineage links.
type Writer struct {
	pool db.Pool
}

// NewWriter creates a Writer backed by the given pool.
func NewWriter(pool db.Pool) *Writer {
	return &Writer{pool: pool}
}

// Upsert persists one accepted crawl/registry pair and returns the unified
// company id. Re-running the same pair updates the existing row in place and
// leaves its source links untouched.
func (w *Writer) Upsert(ctx context.Context, dec match.Decision, crawl model.CrawlRecord, reg model.RegistryRecord) (int64, error) {
	if dec.Kind != match.Accepted {
		return 0, eris.New("resolve: refusing to persist a non-accepted decision")
	}

	u := buildUnified(dec, crawl, reg)

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "resolve: begin upsert tx")
	}
	defer tx.Rollback(ctx)

	var companyID int64
	err = tx.QueryRow(ctx, upsertUnifiedSQL,
		u.ABN, u.UnifiedName, u.UnifiedNameNorm, u.WebsiteDomain, u.WebsiteURLSample,
		u.Industry, u.EntityType, u.EntityStatus, u.AddressFull, u.Suburb, u.Postcode,
		u.State, u.StartDate, u.MatchConfidence, u.MatchMethod,
	).Scan(&companyID)
	if err != nil {
		return 0, eris.Wrap(err, "resolve: upsert company_unified")
	}

	links := []model.SourceLink{
		{CompanyID: companyID, SourceSystem: model.SourceSystemRegistry, SourceKey: reg.ABN},
		{CompanyID: companyID, SourceSystem: model.SourceSystemCrawl, SourceKey: strconv.FormatInt(crawl.ID, 10)},
	}
	for _, l := range links {
		if _, err := tx.Exec(ctx, insertLinkSQL, l.CompanyID, l.SourceSystem, l.SourceKey); err != nil {
			return 0, eris.Wrapf(err, "resolve: link %s/%s", l.SourceSystem, l.SourceKey)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "resolve: commit upsert tx")
	}

	zap.L().With(zap.String("component", "resolve_writer")).Debug("upserted unified company",
		zap.Int64("company_id", companyID),
		zap.String("abn", reg.ABN),
		zap.Int64("commoncrawl_id", crawl.ID),
		zap.String("match_method", u.MatchMethod))

	return companyID, nil
}

// buildUnified merges a crawl record and its matched registry record into a
// unified company. The registry supplies identity and address fields, the
// crawl supplies web presence and industry.
func buildUnified(dec match.Decision, crawl model.CrawlRecord, reg model.RegistryRecord) model.UnifiedCompany {
	name := reg.NameRaw
	if name == "" {
		name = reg.NameNorm
	}
	return model.UnifiedCompany{
		ABN:              nullable(reg.ABN),
		UnifiedName:      name,
		UnifiedNameNorm:  reg.NameNorm,
		WebsiteDomain:    nullable(crawl.Domain),
		WebsiteURLSample: nullable(crawl.URL),
		Industry:         nullable(crawl.Industry),
		EntityType:       nullable(reg.EntityType),
		EntityStatus:     nullable(reg.EntityStatus),
		AddressFull:      nullable(reg.AddressFull),
		Suburb:           nullable(reg.Suburb),
		Postcode:         nullable(reg.Postcode),
		State:            nullable(reg.State),
		StartDate:        model.ParseDateSafe(reg.StartDateRaw),
		MatchConfidence:  dec.Confidence,
		MatchMethod:      dec.Method,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
