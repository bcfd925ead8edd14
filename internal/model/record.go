// Package model defines the record types flowing through the matching pipeline.
package model

import "time"

// RegistryRecord is an immutable per-run snapshot of a staged registry entity.
type RegistryRecord struct {
	ABN          string `json:"abn"`
	NameNorm     string `json:"entity_name_norm"`
	NameRaw      string `json:"entity_name_raw"`
	EntityType   string `json:"entity_type"`
	EntityStatus string `json:"entity_status"`
	AddressFull  string `json:"address_full"`
	Suburb       string `json:"suburb"`
	Postcode     string `json:"postcode"`
	State        string `json:"state"`
	StartDateRaw string `json:"start_date_raw"`
}

// CrawlRecord is a staged web-crawl company candidate. NameNorm is
// best-effort and may be low-signal (e.g. derived from the domain label).
type CrawlRecord struct {
	ID       int64  `json:"commoncrawl_id"`
	BatchID  string `json:"crawl_id"`
	URL      string `json:"url"`
	Domain   string `json:"domain"`
	NameNorm string `json:"company_name_norm"`
	Industry string `json:"industry"`
}

// UnifiedCompany is the persisted canonical record produced by matching.
type UnifiedCompany struct {
	CompanyID        int64      `json:"company_id"`
	ABN              *string    `json:"abn,omitempty"`
	UnifiedName      string     `json:"unified_name"`
	UnifiedNameNorm  string     `json:"unified_name_norm"`
	WebsiteDomain    *string    `json:"website_domain,omitempty"`
	WebsiteURLSample *string    `json:"website_url_sample,omitempty"`
	Industry         *string    `json:"industry,omitempty"`
	EntityType       *string    `json:"entity_type,omitempty"`
	EntityStatus     *string    `json:"entity_status,omitempty"`
	AddressFull      *string    `json:"address_full,omitempty"`
	Suburb           *string    `json:"suburb,omitempty"`
	Postcode         *string    `json:"postcode,omitempty"`
	State            *string    `json:"state,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	MatchConfidence  int        `json:"match_confidence"`
	MatchMethod      string     `json:"match_method"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Source system tags for company_source_link rows.
const (
	SourceSystemRegistry = "REGISTRY"
	SourceSystemCrawl    = "CRAWL"
)

// SourceLink ties a unified company back to one contributing source record.
type SourceLink struct {
	CompanyID    int64  `json:"company_id"`
	SourceSystem string `json:"source_system"`
	SourceKey    string `json:"source_key"`
}
