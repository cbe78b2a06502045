package models

import (
	"database/sql"
	"time"
)

// DistrictRecord is one row of the cleaned census migration workbook.
type DistrictRecord struct {
	ID         int64
	AreaName   string
	AreaType   sql.NullString  // "urban", "rural" or "total"
	Migrants   sql.NullFloat64 // total_migrants_with_duration_0_9_person
	ImportID   sql.NullInt64
	ImportedAt time.Time
}

// DistrictStats aggregates the records of a single district.
type DistrictStats struct {
	District     string
	Records      int
	MeanMigrants sql.NullFloat64
	AreaType     sql.NullString // modal area type
}

// DistrictReasons holds the top migration drivers shown for a district.
type DistrictReasons struct {
	District  string
	Reasons   []string
	Source    string // "seed" or "generated"
	UpdatedAt time.Time
}

// PredictionLog records a single call to the prediction endpoint.
type PredictionLog struct {
	ID          int64
	District    string
	Years       sql.NullInt64
	InflowPred  sql.NullInt64
	OutflowPred sql.NullInt64
	AvgGrowth   sql.NullFloat64
	Error       sql.NullString
	RequestedAt time.Time
}
