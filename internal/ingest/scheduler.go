package ingest

import (
	"context"
	"log"
	"time"

	"github.com/lox/migrationforecast/internal/store"
)

// Scheduler periodically re-imports the dataset from a remote source and
// prunes the prediction log.
type Scheduler struct {
	store           *store.Store
	importer        *Importer
	source          string
	refreshInterval time.Duration
	retention       time.Duration
	cleanupInterval time.Duration
}

func NewScheduler(st *store.Store, importer *Importer, source string, refresh, retention time.Duration) *Scheduler {
	return &Scheduler{
		store:           st,
		importer:        importer,
		source:          source,
		refreshInterval: refresh,
		retention:       retention,
		cleanupInterval: 6 * time.Hour,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.refreshDataset(ctx)
	s.cleanupPredictions()

	var refreshC <-chan time.Time
	if s.source != "" && s.refreshInterval > 0 {
		t := time.NewTicker(s.refreshInterval)
		defer t.Stop()
		refreshC = t.C
	}
	cleanupTicker := time.NewTicker(s.cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-refreshC:
			s.refreshDataset(ctx)
		case <-cleanupTicker.C:
			s.cleanupPredictions()
		}
	}
}

func (s *Scheduler) refreshDataset(ctx context.Context) {
	if s.source == "" {
		return
	}
	log.Printf("scheduler: refreshing dataset from %s", s.source)
	result, err := s.importer.Import(ctx, s.source, false)
	if err != nil {
		log.Printf("scheduler: import %s: %v", s.source, err)
		return
	}
	if !result.Duplicate {
		log.Printf("scheduler: dataset now has %d records", result.Records)
	}
}

func (s *Scheduler) cleanupPredictions() {
	if s.retention <= 0 {
		return
	}
	deleted, err := s.store.CleanupOldPredictions(s.retention)
	if err != nil {
		log.Printf("scheduler: cleanup predictions: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("scheduler: pruned %d prediction log entries", deleted)
	}
}
