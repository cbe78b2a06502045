package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/lox/migrationforecast/internal/metrics"
	"github.com/lox/migrationforecast/internal/store"
	"github.com/lox/migrationforecast/internal/workbook"
)

// Importer loads the dataset workbook into the store.
type Importer struct {
	store   *store.Store
	fetcher *Fetcher
}

func NewImporter(st *store.Store, fetcher *Fetcher) *Importer {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	return &Importer{store: st, fetcher: fetcher}
}

// ImportResult describes one import run.
type ImportResult struct {
	ImportID  int64
	Records   int
	Duplicate bool
	Flags     map[string]int
}

// FlagSummary lists flag counts in name order.
func (r *ImportResult) FlagSummary() []string {
	names := make([]string, 0, len(r.Flags))
	for name := range r.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("%s=%d", name, r.Flags[name])
	}
	return out
}

// Import fetches source and replaces the district records with its rows. A
// payload identical to one already stored is skipped unless force is set or
// the records table is empty.
func (im *Importer) Import(ctx context.Context, source string, force bool) (*ImportResult, error) {
	payload, err := im.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return im.ImportPayload(source, payload, force)
}

func (im *Importer) ImportPayload(source string, payload []byte, force bool) (*ImportResult, error) {
	records, err := workbook.Read(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	importID, err := im.store.StoreWorkbook(source, payload)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{ImportID: importID, Flags: map[string]int{}}

	if importID == 0 && !force {
		existing, err := im.store.CountDistrictRecords()
		if err != nil {
			return nil, err
		}
		if existing > 0 {
			log.Printf("ingest: %s unchanged, skipping", source)
			result.Duplicate = true
			return result, nil
		}
	}

	for i := range records {
		flags := ValidateRecord(&records[i])
		for _, f := range flags {
			result.Flags[f]++
		}
		cleanRecord(&records[i], flags)
	}

	var idPtr *int64
	if importID != 0 {
		idPtr = &importID
	}
	n, err := im.store.ReplaceDistrictRecords(records, idPtr)
	if err != nil {
		return nil, err
	}
	result.Records = n
	metrics.RecordsImported.Add(float64(n))

	if importID != 0 {
		if err := im.store.SetImportRecordCount(importID, n); err != nil {
			log.Printf("ingest: set record count: %v", err)
		}
	}

	log.Printf("ingest: imported %d records from %s %v", n, source, result.FlagSummary())
	return result, nil
}
