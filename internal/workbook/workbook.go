// Package workbook reads the census migration dataset from xlsx and writes
// forecast tables back out.
package workbook

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lox/migrationforecast/internal/forecast"
	"github.com/lox/migrationforecast/internal/models"
)

// Dataset column headers.
const (
	ColAreaName = "area_name"
	ColAreaType = "area_type"
	ColMigrants = "total_migrants_with_duration_0_9_person"
)

var ErrNoSheets = errors.New("workbook has no sheets")

// Read parses the first sheet of a dataset workbook. Columns are located by
// header name; only area_name is required.
func Read(r io.Reader) ([]models.DistrictRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, ok := cols[ColAreaName]
	if !ok {
		return nil, fmt.Errorf("missing %s column", ColAreaName)
	}
	typeCol, hasType := cols[ColAreaType]
	migrantsCol, hasMigrants := cols[ColMigrants]

	records := make([]models.DistrictRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := models.DistrictRecord{AreaName: strings.TrimSpace(cell(row, nameCol))}
		if rec.AreaName == "" {
			continue
		}
		if hasType {
			if t := strings.TrimSpace(cell(row, typeCol)); t != "" {
				rec.AreaType = sql.NullString{String: t, Valid: true}
			}
		}
		if hasMigrants {
			rec.Migrants = parseNumber(cell(row, migrantsCol))
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseNumber(s string) sql.NullFloat64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// Write creates a dataset workbook from records.
func Write(w io.Writer, records []models.DistrictRecord) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &[]any{ColAreaName, ColAreaType, ColMigrants}); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{r.AreaName, nil, nil}
		if r.AreaType.Valid {
			row[1] = r.AreaType.String
		}
		if r.Migrants.Valid {
			row[2] = r.Migrants.Float64
		}
		addr, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

const forecastSheet = "Forecast"

// WriteForecast exports a projection as a two-sheet workbook: the yearly
// table and a summary.
func WriteForecast(w io.Writer, res *forecast.Result, reasons []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), forecastSheet); err != nil {
		return err
	}
	headers := []string{"Year", "Inflow", "Outflow"}
	for i, h := range headers {
		addr, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(forecastSheet, addr, h)
	}
	for i, p := range res.TableData {
		addr, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(forecastSheet, addr, &[]any{p.Year, p.Inflow, p.Outflow}); err != nil {
			return fmt.Errorf("write year %d: %w", p.Year, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetCellStyle(forecastSheet, "A1", "C1", style)
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}
	rows := [][]any{
		{"District", res.District},
		{"Base inflow", res.BaseInflow},
		{"Growth rate", res.GrowthRate},
		{"Predicted inflow", res.InflowPred},
		{"Predicted outflow", res.OutflowPred},
		{"Average growth (%)", res.AvgGrowth},
	}
	for _, reason := range reasons {
		rows = append(rows, []any{"Reason", reason})
	}
	for i, row := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, addr, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return f.Write(w)
}
