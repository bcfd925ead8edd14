package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/firmable/unify/internal/db"
)

// Status is a snapshot of row counts across the pipeline tables.
type Status struct {
	RawRegistry    int64
	RawCrawl       int64
	StagedRegistry int64
	StagedCrawl    int64
	Unified        int64
	SourceLinks    int64
	// MethodCounts breaks unified rows down by match_method.
	MethodCounts map[string]int64
}

// LoadStatus counts rows in each pipeline table.
func LoadStatus(ctx context.Context, pool db.Pool) (*Status, error) {
	st := &Status{MethodCounts: make(map[string]int64)}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"raw_abr", &st.RawRegistry},
		{"raw_commoncrawl", &st.RawCrawl},
		{"stg_abr_entities", &st.StagedRegistry},
		{"stg_commoncrawl_companies", &st.StagedCrawl},
		{"company_unified", &st.Unified},
		{"company_source_link", &st.SourceLinks},
	}
	for _, c := range counts {
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, eris.Wrapf(err, "store: count %s", c.table)
		}
	}

	rows, err := pool.Query(ctx,
		"SELECT match_method, count(*) FROM company_unified GROUP BY match_method")
	if err != nil {
		return nil, eris.Wrap(err, "store: match method breakdown")
	}
	defer rows.Close()
	for rows.Next() {
		var method string
		var n int64
		if err := rows.Scan(&method, &n); err != nil {
			return nil, eris.Wrap(err, "store: scan method breakdown")
		}
		st.MethodCounts[method] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate method breakdown")
	}

	return st, nil
}
