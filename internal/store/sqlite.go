package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/migrationforecast/internal/models"
)

type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

func New(db *sql.DB) *Store {
	return &Store{db: db, clock: clockwork.NewRealClock()}
}

// SetClock swaps the time source used for import and log timestamps.
func (s *Store) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	s.clock = c
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// ReplaceDistrictRecords swaps the whole dataset for records in one transaction.
func (s *Store) ReplaceDistrictRecords(records []models.DistrictRecord, importID *int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM district_records`); err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO district_records (area_name, area_type, migrants_0_9, import_id, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var id sql.NullInt64
	if importID != nil {
		id = sql.NullInt64{Int64: *importID, Valid: true}
	}
	now := s.clock.Now().UTC()

	n := 0
	for _, r := range records {
		name := strings.TrimSpace(r.AreaName)
		if name == "" {
			continue
		}
		areaType := r.AreaType
		if areaType.Valid {
			areaType.String = strings.TrimSpace(areaType.String)
		}
		if _, err := stmt.Exec(name, areaType, r.Migrants, id, now); err != nil {
			return n, fmt.Errorf("insert record %q: %w", name, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// CountDistrictRecords returns the number of dataset rows.
func (s *Store) CountDistrictRecords() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM district_records`).Scan(&n)
	return n, err
}

// ListDistricts returns the sorted distinct district names, excluding
// state-level total rows.
func (s *Store) ListDistricts() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT area_name FROM district_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var districts []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(name), "uttarakhand") {
			continue
		}
		districts = append(districts, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(districts)
	return districts, nil
}

// GetDistrictStats aggregates the records for a district. A district with no
// records returns stats with Records == 0 and no error.
func (s *Store) GetDistrictStats(district string) (*models.DistrictStats, error) {
	stats := &models.DistrictStats{District: district}

	err := s.db.QueryRow(`
		SELECT COUNT(*), AVG(migrants_0_9)
		FROM district_records
		WHERE area_name = ?
	`, district).Scan(&stats.Records, &stats.MeanMigrants)
	if err != nil {
		return nil, fmt.Errorf("aggregate records: %w", err)
	}
	if stats.Records == 0 {
		return stats, nil
	}

	// Ties resolve to the alphabetically first type.
	err = s.db.QueryRow(`
		SELECT area_type
		FROM district_records
		WHERE area_name = ? AND area_type IS NOT NULL AND area_type != ''
		GROUP BY area_type
		ORDER BY COUNT(*) DESC, area_type ASC
		LIMIT 1
	`, district).Scan(&stats.AreaType)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("modal area type: %w", err)
	}
	return stats, nil
}

// UpsertReasons stores the migration drivers for a district.
func (s *Store) UpsertReasons(district string, reasons []string, source string) error {
	b, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO district_reasons (district, reasons, source, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(district) DO UPDATE SET
			reasons = excluded.reasons,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, district, string(b), source, s.clock.Now().UTC())
	return err
}

// GetReasons returns the stored drivers for a district, or nil if none exist.
func (s *Store) GetReasons(district string) (*models.DistrictReasons, error) {
	var (
		dr  models.DistrictReasons
		raw string
	)
	err := s.db.QueryRow(`
		SELECT district, reasons, source, updated_at
		FROM district_reasons
		WHERE district = ?
	`, district).Scan(&dr.District, &raw, &dr.Source, &dr.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &dr.Reasons); err != nil {
		return nil, fmt.Errorf("decode reasons for %s: %w", district, err)
	}
	return &dr, nil
}

// InsertPrediction appends an entry to the prediction log.
func (s *Store) InsertPrediction(p models.PredictionLog) (int64, error) {
	requestedAt := p.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = s.clock.Now().UTC()
	}
	result, err := s.db.Exec(`
		INSERT INTO predictions (district, years, inflow_pred, outflow_pred, avg_growth, error, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.District, p.Years, p.InflowPred, p.OutflowPred, p.AvgGrowth, p.Error, requestedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentPredictions returns the newest log entries first.
func (s *Store) RecentPredictions(limit int) ([]models.PredictionLog, error) {
	rows, err := s.db.Query(`
		SELECT id, district, years, inflow_pred, outflow_pred, avg_growth, error, requested_at
		FROM predictions
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.PredictionLog
	for rows.Next() {
		var p models.PredictionLog
		if err := rows.Scan(&p.ID, &p.District, &p.Years, &p.InflowPred, &p.OutflowPred, &p.AvgGrowth, &p.Error, &p.RequestedAt); err != nil {
			return nil, err
		}
		logs = append(logs, p)
	}
	return logs, rows.Err()
}

// CleanupOldPredictions deletes log entries older than the retention window.
func (s *Store) CleanupOldPredictions(retention time.Duration) (int64, error) {
	cutoff := s.clock.Now().UTC().Add(-retention)
	result, err := s.db.Exec(`DELETE FROM predictions WHERE requested_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
