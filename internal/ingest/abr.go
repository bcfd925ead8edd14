package ingest

import (
	"archive/zip"
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/db"
)

var rawABRColumns = []string{
	"abn", "abn_status", "abn_status_from_date",
	"entity_type_code", "entity_type_text", "entity_name",
	"state", "postcode",
}

// abrRecord mirrors one ABR element of the registry bulk extract XML.
type abrRecord struct {
	ABN struct {
		Value      string `xml:",chardata"`
		Status     string `xml:"status,attr"`
		StatusFrom string `xml:"ABNStatusFromDate,attr"`
	} `xml:"ABN"`
	EntityType struct {
		Code string `xml:"EntityTypeInd"`
		Text string `xml:"EntityTypeText"`
	} `xml:"EntityType"`
	MainEntity  *abrMainEntity  `xml:"MainEntity"`
	LegalEntity *abrLegalEntity `xml:"LegalEntity"`
}

type abrMainEntity struct {
	Name struct {
		Text string `xml:"NonIndividualNameText"`
	} `xml:"NonIndividualName"`
	Address abrAddress `xml:"BusinessAddress>AddressDetails"`
}

type abrLegalEntity struct {
	Name struct {
		GivenNames []string `xml:"GivenName"`
		FamilyName string   `xml:"FamilyName"`
	} `xml:"IndividualName"`
	Address abrAddress `xml:"BusinessAddress>AddressDetails"`
}

type abrAddress struct {
	State    string `xml:"State"`
	Postcode string `xml:"Postcode"`
}

// flatten reduces an ABR element to a raw_abr row. Companies carry their name
// on MainEntity; sole traders carry an individual name on LegalEntity. Records
// missing an ABN or any usable name are dropped.
func (r abrRecord) flatten() ([]any, bool) {
	abn := strings.TrimSpace(r.ABN.Value)
	if abn == "" {
		return nil, false
	}

	var name string
	var addr abrAddress
	switch {
	case r.MainEntity != nil && strings.TrimSpace(r.MainEntity.Name.Text) != "":
		name = strings.TrimSpace(r.MainEntity.Name.Text)
		addr = r.MainEntity.Address
	case r.LegalEntity != nil:
		parts := append([]string{}, r.LegalEntity.Name.GivenNames...)
		parts = append(parts, r.LegalEntity.Name.FamilyName)
		name = strings.TrimSpace(strings.Join(parts, " "))
		addr = r.LegalEntity.Address
	}
	if name == "" {
		return nil, false
	}

	return []any{
		abn, r.ABN.Status, r.ABN.StatusFrom,
		r.EntityType.Code, r.EntityType.Text, name,
		addr.State, addr.Postcode,
	}, true
}

// RegistryLoader loads registry bulk extract ZIPs into raw_abr.
type RegistryLoader struct {
	pool      db.Pool
	batchSize int
}

// NewRegistryLoader creates a RegistryLoader. batchSize bounds the rows held
// in memory between copies.
func NewRegistryLoader(pool db.Pool, batchSize int) *RegistryLoader {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &RegistryLoader{pool: pool, batchSize: batchSize}
}

// LoadZip replaces raw_abr with the contents of the bulk extract at path.
// Returns the number of rows loaded.
func (l *RegistryLoader) LoadZip(ctx context.Context, path string) (int64, error) {
	log := zap.L().With(zap.String("component", "ingest.registry"))

	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open registry zip %s", path)
	}
	defer zr.Close()

	// Cancelling unblocks the stream goroutine on early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := db.Truncate(ctx, l.pool, "raw_abr"); err != nil {
		return 0, err
	}

	var total int64
	batch := make([][]any, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := db.CopyFrom(ctx, l.pool, "raw_abr", rawABRColumns, batch)
		if err != nil {
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}
		log.Info("reading extract file", zap.String("file", f.Name))

		rc, err := f.Open()
		if err != nil {
			return total, eris.Wrapf(err, "ingest: open %s in zip", f.Name)
		}

		recCh, errCh := StreamXML[abrRecord](ctx, rc, "ABR")
		for rec := range recCh {
			row, ok := rec.flatten()
			if !ok {
				continue
			}
			batch = append(batch, row)
			if len(batch) >= l.batchSize {
				if err := flush(); err != nil {
					rc.Close()
					return total, err
				}
			}
		}
		streamErr := <-errCh
		rc.Close()
		if streamErr != nil {
			return total, eris.Wrapf(streamErr, "ingest: stream %s", f.Name)
		}
	}

	if err := flush(); err != nil {
		return total, err
	}

	log.Info("registry extract loaded", zap.Int64("rows", total))
	return total, nil
}
