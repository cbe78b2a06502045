package workbook

import (
	"bytes"
	"database/sql"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/lox/migrationforecast/internal/forecast"
	"github.com/lox/migrationforecast/internal/models"
)

func buildSheet(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestRead(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"State", " Area_Name ", "AREA_TYPE", "total_migrants_with_duration_0_9_person"},
		{"5", "Dehradun", "Urban", 1200.5},
		{"5", "Dehradun", "Rural", "1,000"},
		{"5", "", "Rural", 3},
		{"5", "Almora", "", "nan"},
		{"5", "Chamoli"},
	})

	records, err := Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}

	tests := []struct {
		i        int
		name     string
		areaType sql.NullString
		migrants sql.NullFloat64
	}{
		{0, "Dehradun", sql.NullString{String: "Urban", Valid: true}, sql.NullFloat64{Float64: 1200.5, Valid: true}},
		{1, "Dehradun", sql.NullString{String: "Rural", Valid: true}, sql.NullFloat64{Float64: 1000, Valid: true}},
		{2, "Almora", sql.NullString{}, sql.NullFloat64{}},
		{3, "Chamoli", sql.NullString{}, sql.NullFloat64{}},
	}
	for _, tt := range tests {
		r := records[tt.i]
		if r.AreaName != tt.name || r.AreaType != tt.areaType || r.Migrants != tt.migrants {
			t.Errorf("records[%d] = %+v, want %s %+v %+v", tt.i, r, tt.name, tt.areaType, tt.migrants)
		}
	}
}

func TestRead_MissingNameColumn(t *testing.T) {
	buf := buildSheet(t, [][]any{{"district", "area_type"}, {"Almora", "Rural"}})
	if _, err := Read(buf); err == nil {
		t.Fatal("expected error for missing area_name column")
	}
}

func TestRead_NotAWorkbook(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("area_name\nAlmora\n"))); err == nil {
		t.Fatal("expected error for non-xlsx input")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	in := []models.DistrictRecord{
		{AreaName: "Nainital", AreaType: sql.NullString{String: "urban", Valid: true}, Migrants: sql.NullFloat64{Float64: 42, Valid: true}},
		{AreaName: "Bageshwar"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(out) != 2 || out[0].Migrants.Float64 != 42 || out[1].AreaType.Valid {
		t.Errorf("round trip = %+v", out)
	}
}

func TestWriteForecast(t *testing.T) {
	res := &forecast.Result{
		District:    "Almora",
		BaseInflow:  1000,
		GrowthRate:  0.04,
		InflowPred:  1016,
		OutflowPred: 711,
		AvgGrowth:   0.79,
		TableData: []forecast.Projection{
			{Year: 1, Inflow: 1007.87, Outflow: 705.51},
			{Year: 2, Inflow: 1015.81, Outflow: 711.07},
		},
	}

	var buf bytes.Buffer
	if err := WriteForecast(&buf, res, []string{"Agriculture distress"}); err != nil {
		t.Fatalf("WriteForecast: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(forecastSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("forecast rows = %d, want 3", len(rows))
	}
	if rows[2][0] != "2" || rows[2][1] != "1015.81" {
		t.Errorf("row 2 = %v", rows[2])
	}

	summary, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("GetRows summary: %v", err)
	}
	if got := summary[len(summary)-1]; got[0] != "Reason" || got[1] != "Agriculture distress" {
		t.Errorf("last summary row = %v", got)
	}
}
