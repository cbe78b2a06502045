package ingest

import (
	"database/sql"
	"strings"

	"github.com/lox/migrationforecast/internal/models"
)

const (
	FlagMigrantsMissing  = "migrants_missing"
	FlagMigrantsNegative = "migrants_negative"
	FlagAreaTypeUnknown  = "area_type_unknown"
	FlagStateTotal       = "state_total"
)

var knownAreaTypes = map[string]bool{"total": true, "rural": true, "urban": true}

// ValidateRecord returns quality flags for a dataset row.
func ValidateRecord(rec *models.DistrictRecord) []string {
	var flags []string

	if !rec.Migrants.Valid {
		flags = append(flags, FlagMigrantsMissing)
	} else if rec.Migrants.Float64 < 0 {
		flags = append(flags, FlagMigrantsNegative)
	}

	if rec.AreaType.Valid && !knownAreaTypes[strings.ToLower(rec.AreaType.String)] {
		flags = append(flags, FlagAreaTypeUnknown)
	}

	if strings.Contains(strings.ToLower(rec.AreaName), "uttarakhand") {
		flags = append(flags, FlagStateTotal)
	}

	return flags
}

// cleanRecord drops values that cannot be used by the projection. Negative
// migrant counts are treated as missing.
func cleanRecord(rec *models.DistrictRecord, flags []string) {
	for _, f := range flags {
		if f == FlagMigrantsNegative {
			rec.Migrants = sql.NullFloat64{}
		}
	}
}
