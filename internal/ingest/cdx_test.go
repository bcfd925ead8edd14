package ingest

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveNameFromDomain(t *testing.T) {
	cases := map[string]string{
		"acme.com.au":          "ACME",
		"acme-widgets.com.au":  "ACME WIDGETS",
		"bob_and_co.net.au":    "BOB AND CO",
		"123go.com":            "123GO",
		"---.com":              "",
		"":                     "",
		"single-label":         "SINGLE LABEL",
	}
	for in, want := range cases {
		assert.Equal(t, want, DeriveNameFromDomain(in), in)
	}
}

const cdxSample = `au,com,acme)/ 20250301120000 {"url": "https://www.acme.com.au/", "status": "200", "mime": "text/html"}
au,com,acme)/about 20250301120005 {"url": "https://www.acme.com.au/about", "status": "200", "mime": "text/html"}
au,net,widgets)/ 20250301120010 {"url": "https://widgets.net.au/", "status": "200", "mime": "text/html; charset=utf-8"}
au,com,broken)/ 20250301120015 {"url": "https://broken.com.au/", "status": "404", "mime": "text/html"}
au,com,image)/logo.png 20250301120020 {"url": "https://image.com.au/logo.png", "status": "200", "mime": "image/png"}
garbage line
`

func writeTestShard(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cdx-00000.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadShard(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	path := writeTestShard(t, cdxSample)

	mock.ExpectExec(`TRUNCATE TABLE "raw_commoncrawl"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	// acme.com.au deduplicated, broken and non-html pages filtered: 2 rows.
	mock.ExpectCopyFrom(pgx.Identifier{"raw_commoncrawl"}, rawCrawlColumns).WillReturnResult(2)

	n, err := NewCDXLoader(mock, 5000, "CC-MAIN-2025-13", 0).LoadShard(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadShardHonorsRecordCap(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	path := writeTestShard(t, cdxSample)

	mock.ExpectExec(`TRUNCATE TABLE "raw_commoncrawl"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"raw_commoncrawl"}, rawCrawlColumns).WillReturnResult(1)

	n, err := NewCDXLoader(mock, 5000, "CC-MAIN-2025-13", 1).LoadShard(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadShardNotGzip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	path := filepath.Join(t.TempDir(), "plain.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	_, err = NewCDXLoader(mock, 5000, "CC-MAIN-2025-13", 0).LoadShard(context.Background(), path)
	require.Error(t, err)
}
