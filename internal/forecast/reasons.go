package forecast

import (
	"context"
	"log"
	"sort"

	"github.com/lox/migrationforecast/internal/models"
)

const (
	ReasonSourceSeed      = "seed"
	ReasonSourceGenerated = "generated"
)

// DefaultReasons is returned for districts with no known or generated drivers.
var DefaultReasons = []string{"Employment", "Education", "Climate stress (migration)"}

// districtReasons are the top three migration drivers per district.
var districtReasons = map[string][]string{
	"Dehradun":          {"Employment", "Education", "Urban facilities"},
	"Haridwar":          {"Industrial jobs", "Infrastructure", "Family migration / Networks"},
	"Pithoragarh":       {"Climate stress (crop failure, landslides)", "Agriculture distress", "Employment"},
	"Almora":            {"Agriculture distress", "Climate stress (erratic rainfall)", "Limited local jobs / Employment"},
	"Nainital":          {"Tourism jobs", "Education (higher studies)", "Employment (service sector)"},
	"Pauri_Garhwal":     {"Outmigration for jobs", "Education (lack of higher education locally)", "Agriculture distress"},
	"Bageshwar":         {"Agriculture & livestock distress", "Limited local employment", "Outmigration of youth for jobs"},
	"Chamoli":           {"Disaster & climate vulnerability (floods/landslides)", "Hydropower/project displacement", "Seasonal tourism jobs"},
	"Champawat":         {"Agricultural decline", "Lack of local industries/employment", "Education & youth outmigration"},
	"Rudraprayag":       {"Natural hazard risk (floods/landslides)", "Pilgrimage/tourism seasonality (unstable income)", "Limited year-round employment"},
	"Tehri Garhwal":     {"Hydropower project displacement & resettlement", "Tourism & pilgrimage-linked jobs", "Agriculture distress / smallholdings"},
	"Udham_Singh_Nagar": {"Industrial & factory jobs (inflow/outflow dynamics)", "Agricultural labour migration", "Urban housing & infrastructure pull factors"},
	"Uttarkashi":        {"Climate & disaster risk (glacial/river impacts)", "Limited connectivity & services (push)", "Tourism/seasonal employment (pull)"},
}

// ReasonStore persists district drivers.
type ReasonStore interface {
	GetReasons(district string) (*models.DistrictReasons, error)
	UpsertReasons(district string, reasons []string, source string) error
}

// ReasonGenerator produces drivers for districts that have none stored.
type ReasonGenerator interface {
	GenerateReasons(ctx context.Context, district string) ([]string, error)
}

// SeedReasons writes the built-in district drivers to the store.
func SeedReasons(st ReasonStore) error {
	names := make([]string, 0, len(districtReasons))
	for name := range districtReasons {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		existing, err := st.GetReasons(name)
		if err != nil {
			return err
		}
		// Keep operator edits.
		if existing != nil {
			continue
		}
		if err := st.UpsertReasons(name, districtReasons[name], ReasonSourceSeed); err != nil {
			return err
		}
	}
	return nil
}

// ReasonResolver looks up drivers in the store, generating and caching them for
// unknown districts when a generator is configured.
type ReasonResolver struct {
	store ReasonStore
	gen   ReasonGenerator
}

func NewReasonResolver(st ReasonStore, gen ReasonGenerator) *ReasonResolver {
	return &ReasonResolver{store: st, gen: gen}
}

// Reasons never fails; lookup or generation errors fall back to DefaultReasons.
func (r *ReasonResolver) Reasons(ctx context.Context, district string) []string {
	if r.store != nil {
		dr, err := r.store.GetReasons(district)
		if err != nil {
			log.Printf("forecast: get reasons %s: %v", district, err)
		} else if dr != nil && len(dr.Reasons) > 0 {
			return dr.Reasons
		}
	}
	if seeded, ok := districtReasons[district]; ok {
		return seeded
	}

	if r.gen == nil || district == "" {
		return DefaultReasons
	}
	reasons, err := r.gen.GenerateReasons(ctx, district)
	if err != nil || len(reasons) == 0 {
		if err != nil {
			log.Printf("forecast: generate reasons %s: %v", district, err)
		}
		return DefaultReasons
	}
	if r.store != nil {
		if err := r.store.UpsertReasons(district, reasons, ReasonSourceGenerated); err != nil {
			log.Printf("forecast: cache reasons %s: %v", district, err)
		}
	}
	return reasons
}
