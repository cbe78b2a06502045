package formhandler

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	tests := []struct {
		input string
		want  Years
	}{
		{"5", Years{5, true}},
		{"  25  ", Years{25, true}},
		{"10 years", Years{10, true}},
		{"+15", Years{15, true}},
		{"-5", Years{-5, true}},
		{"0x1A", Years{26, true}},
		{"007", Years{7, true}},
		{"3.9", Years{3, true}},
		{"", Years{}},
		{"five", Years{}},
		{"-", Years{}},
		{"0x", Years{}},
		{"3000000000", Years{3000000000, true}},
		{"99999999999999999999", Years{math.MaxInt, true}},
		{"-99999999999999999999", Years{-math.MaxInt, true}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseYears(tt.input))
		})
	}
}

func TestRequest_JSON(t *testing.T) {
	b, err := json.Marshal(Request{District: "Almora", Years: ParseYears("10")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"district":"Almora","years":10}`, string(b))

	b, err = json.Marshal(Request{District: "Almora", Years: ParseYears("3000000000")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"district":"Almora","years":3000000000}`, string(b))

	b, err = json.Marshal(Request{District: "", Years: ParseYears("abc")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"district":"","years":null}`, string(b))

	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"district":"Almora","years":null}`), &req))
	assert.False(t, req.Years.Valid)
	assert.Equal(t, "NaN", req.Years.String())
}

func TestResponse_ErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantMsg string
		wantOK  bool
	}{
		{"absent", ``, "", false},
		{"null", `null`, "", false},
		{"false", `false`, "", false},
		{"empty string", `""`, "", false},
		{"zero", `0`, "", false},
		{"message", `"unknown district"`, "unknown district", true},
		{"number", `42`, "42", true},
		{"true", `true`, "true", true},
		{"object", `{"code":1}`, `{"code":1}`, true},
		{"empty object", `{}`, `{}`, true},
		{"array", `["bad"]`, `["bad"]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Response{Error: json.RawMessage(tt.raw)}
			msg, ok := r.ErrorMessage()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestResponse_Reasons(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"omitted", `{}`, nil},
		{"null", `{"reasons":null}`, nil},
		{"object", `{"reasons":{"a":"b"}}`, nil},
		{"string", `{"reasons":"Jobs"}`, nil},
		{"mixed members", `{"reasons":["Jobs",3,null,"Trade"]}`, []string{"Jobs", "Trade"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp Response
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))
			if tt.want == nil {
				assert.Empty(t, resp.Reasons)
			} else {
				assert.Equal(t, tt.want, []string(resp.Reasons))
			}
			assert.Equal(t, []string{"Employment", "Education", "Climate stress"}[:3-len(tt.want)],
				DisplayReasons(resp.Reasons)[len(tt.want):])
		})
	}
}

func TestResponse_Rows(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"table_data":[{"year":2025,"inflow":"1,000","outflow":null}]}`), &resp))
	rows, err := resp.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025", rows[0].Year.String())
	assert.Equal(t, "1,000", rows[0].Inflow.String())
	assert.Equal(t, "", rows[0].Outflow.String())

	_, err = (&Response{}).Rows()
	assert.Error(t, err)
	_, err = (&Response{TableData: json.RawMessage(`{"year":1}`)}).Rows()
	assert.Error(t, err)
}

func TestValue_Verbatim(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(`{"inflow_pred":1200.50,"avg_growth":-0.0,"district":"Tehri Garhwal"}`), &resp))
	assert.Equal(t, "1200.50", resp.InflowPred.String())
	assert.Equal(t, "-0.0", resp.AvgGrowth.String())
	assert.Equal(t, "Tehri Garhwal", resp.District.String())
	assert.Equal(t, "", resp.OutflowPred.String())

	f, ok := resp.InflowPred.Float64()
	assert.True(t, ok)
	assert.Equal(t, 1200.5, f)
	_, ok = resp.District.Float64()
	assert.False(t, ok)
}

func TestValue_NullAndCompositeCells(t *testing.T) {
	var rows []TableRow
	require.NoError(t, json.Unmarshal([]byte(`[{"year":null,"inflow":{"v":1},"outflow":[2]}]`), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Year.String())
	assert.Equal(t, `{"v":1}`, rows[0].Inflow.String())
	assert.Equal(t, "[2]", rows[0].Outflow.String())
}

func TestDisplayReasons(t *testing.T) {
	tests := []struct {
		name     string
		incoming []string
		want     []string
	}{
		{"none", nil, []string{"Employment", "Education", "Climate stress"}},
		{"one", []string{"Jobs"}, []string{"Jobs", "Employment", "Education"}},
		{"fallback overlap", []string{"Education"}, []string{"Education", "Employment", "Climate stress"}},
		{"duplicates", []string{"Jobs", "Jobs", "Jobs"}, []string{"Jobs", "Employment", "Education"}},
		{"truncated", []string{"A", "B", "C", "D"}, []string{"A", "B", "C"}},
		{"dupes before truncation", []string{"A", "A", "B", "C"}, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayReasons(tt.incoming)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, DisplayReasonCount)

			seen := map[string]bool{}
			for _, r := range got {
				assert.False(t, seen[r], "duplicate %q", r)
				seen[r] = true
			}
		})
	}
}

func TestBuildChart_NonNumericCells(t *testing.T) {
	rows := []TableRow{
		{Year: NumberValue(2025), Inflow: NumberValue(10), Outflow: Value{raw: json.RawMessage(`"n/a"`)}},
	}
	spec := BuildChart("Almora", rows)
	require.Len(t, spec.Traces, 2)
	assert.Equal(t, []float64{10}, spec.Traces[SeriesInflow].Y)
	assert.True(t, spec.Traces[SeriesOutflow].Y[0] != spec.Traces[SeriesOutflow].Y[0], "expected NaN")
	assert.Equal(t, "dot", spec.Traces[SeriesOutflow].Dash)
	assert.Equal(t, "legendonly", HiddenViaLegend.String())
}
