package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lox/migrationforecast/internal/models"
)

const (
	// DefaultBaseInflow is used when neither the dataset nor the estimator can
	// supply a base inflow for a district.
	DefaultBaseInflow = 1000.0

	UrbanGrowthRate = 0.06
	RuralGrowthRate = 0.04

	// OutflowRatio is the share of projected inflow assumed to leave again.
	OutflowRatio = 0.7

	// MaxYears is the longest horizon Project accepts.
	MaxYears = 200

	// growthPeriodYears is the horizon over which the growth rate compounds once.
	growthPeriodYears = 5.0
)

var (
	ErrInvalidYears  = errors.New("years must be a positive integer")
	ErrYearsTooLarge = fmt.Errorf("years must be at most %d", MaxYears)
)

// StatsSource supplies aggregated dataset figures for a district.
type StatsSource interface {
	GetDistrictStats(district string) (*models.DistrictStats, error)
}

// BaseEstimator estimates a base inflow when the dataset has no usable figure.
type BaseEstimator interface {
	EstimateBase(district string) (float64, error)
}

// ConstantBase is a BaseEstimator returning a fixed value.
type ConstantBase float64

func (c ConstantBase) EstimateBase(string) (float64, error) {
	return float64(c), nil
}

// Projection is one year of the forecast table.
type Projection struct {
	Year    int     `json:"year"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
}

// Result is a complete district forecast.
type Result struct {
	District    string
	BaseInflow  float64
	GrowthRate  float64
	InflowPred  int64
	OutflowPred int64
	AvgGrowth   float64
	TableData   []Projection
}

type Projector struct {
	stats     StatsSource
	estimator BaseEstimator
}

// NewProjector creates a projector. A nil estimator falls back to DefaultBaseInflow.
func NewProjector(stats StatsSource, estimator BaseEstimator) *Projector {
	if estimator == nil {
		estimator = ConstantBase(DefaultBaseInflow)
	}
	return &Projector{stats: stats, estimator: estimator}
}

// Project builds a yearly inflow/outflow projection for years 1..years.
func (p *Projector) Project(district string, years int) (*Result, error) {
	if years <= 0 {
		return nil, ErrInvalidYears
	}
	if years > MaxYears {
		return nil, ErrYearsTooLarge
	}

	stats, err := p.stats.GetDistrictStats(district)
	if err != nil {
		return nil, fmt.Errorf("district stats: %w", err)
	}

	base := p.baseInflow(district, stats)
	rate := GrowthRate(stats)
	table := Projections(base, rate, years)

	last := table[len(table)-1]
	return &Result{
		District:    district,
		BaseInflow:  base,
		GrowthRate:  rate,
		InflowPred:  int64(math.Round(last.Inflow)),
		OutflowPred: int64(math.Round(last.Outflow)),
		AvgGrowth:   AverageGrowth(table),
		TableData:   table,
	}, nil
}

func (p *Projector) baseInflow(district string, stats *models.DistrictStats) float64 {
	if stats != nil && stats.MeanMigrants.Valid {
		mean := stats.MeanMigrants.Float64
		if !math.IsNaN(mean) && mean != 0 {
			return mean
		}
	}
	base, err := p.estimator.EstimateBase(district)
	if err != nil || math.IsNaN(base) || math.IsInf(base, 0) {
		return DefaultBaseInflow
	}
	return base
}

// GrowthRate picks the compounding rate from the district's modal area type.
func GrowthRate(stats *models.DistrictStats) float64 {
	if stats != nil && stats.AreaType.Valid && strings.EqualFold(strings.TrimSpace(stats.AreaType.String), "urban") {
		return UrbanGrowthRate
	}
	return RuralGrowthRate
}

// Projections compounds base by rate every growthPeriodYears, one row per year.
// Callers bound years; Project caps it at MaxYears.
func Projections(base, rate float64, years int) []Projection {
	var table []Projection
	for y := 1; y <= years; y++ {
		in := base * math.Pow(1+rate, float64(y)/growthPeriodYears)
		out := in * OutflowRatio
		table = append(table, Projection{
			Year:    y,
			Inflow:  round2(in),
			Outflow: round2(out),
		})
	}
	return table
}

// AverageGrowth is the percentage change of inflow from the first to the last row.
func AverageGrowth(table []Projection) float64 {
	if len(table) < 2 || table[0].Inflow == 0 {
		return 0
	}
	first, last := table[0].Inflow, table[len(table)-1].Inflow
	return round2((last - first) / first * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
