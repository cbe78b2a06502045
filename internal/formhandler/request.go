package formhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Years is a forecast horizon parsed from user input. An invalid value is
// forwarded as-is and serializes as JSON null.
type Years struct {
	Value int
	Valid bool
}

// ParseYears reads a leading integer from s the way a browser's parseInt does:
// surrounding whitespace and trailing garbage are ignored, an optional sign and
// a 0x prefix are honored. Input with no leading digits is invalid. Integers
// beyond the int range saturate rather than becoming invalid.
func ParseYears(s string) Years {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base, isDigit := 10, isDecimal
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit = 16, isHex
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return Years{}
	}

	// The digits are already validated; on overflow n holds the clamped value.
	n, _ := strconv.ParseInt(s[:end], base, 0)
	if neg {
		n = -n
	}
	return Years{Value: int(n), Valid: true}
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (y Years) MarshalJSON() ([]byte, error) {
	if !y.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

func (y *Years) UnmarshalJSON(b []byte) error {
	var n *int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if n == nil {
		*y = Years{}
		return nil
	}
	*y = Years{Value: *n, Valid: true}
	return nil
}

func (y Years) String() string {
	if !y.Valid {
		return "NaN"
	}
	return strconv.Itoa(y.Value)
}

// Request is the body of a prediction call.
type Request struct {
	District string `json:"district"`
	Years    Years  `json:"years"`
}

// Value keeps the verbatim text of a JSON scalar for display.
type Value struct {
	raw json.RawMessage
}

func (v *Value) UnmarshalJSON(b []byte) error {
	v.raw = append(v.raw[:0], b...)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// NumberValue builds a Value from a float, as the server would encode it.
func NumberValue(f float64) Value {
	return Value{raw: json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))}
}

// String renders numbers as written, strings without quotes and null or a
// missing value as the empty string. This differs from a browser's string
// conversion on purpose: null is blank rather than "null", and objects or
// arrays keep their JSON text rather than becoming "[object Object]".
func (v Value) String() string {
	raw := bytes.TrimSpace(v.raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Float64 returns the numeric value, accepting numeric strings.
func (v Value) Float64() (float64, bool) {
	s := v.String()
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ReasonList decodes a JSON array of strings. Any other shape, including null,
// an object or a scalar, decodes to an empty list instead of failing. Non-string
// array members are dropped.
type ReasonList []string

func (r *ReasonList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*r = nil
		return nil
	}
	out := make(ReasonList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	*r = out
	return nil
}

// TableRow is one year of the forecast breakdown.
type TableRow struct {
	Year    Value `json:"year"`
	Inflow  Value `json:"inflow"`
	Outflow Value `json:"outflow"`
}

// Response is the body returned by the prediction endpoint.
type Response struct {
	District    Value           `json:"district"`
	InflowPred  Value           `json:"inflow_pred"`
	OutflowPred Value           `json:"outflow_pred"`
	AvgGrowth   Value           `json:"avg_growth"`
	Reasons     ReasonList      `json:"reasons"`
	TableData   json.RawMessage `json:"table_data"`
	Error       json.RawMessage `json:"error,omitempty"`
}

// ErrorMessage reports whether the response carries a truthy error field.
func (r *Response) ErrorMessage() (string, bool) {
	raw := bytes.TrimSpace(r.Error)
	switch {
	case len(raw) == 0,
		bytes.Equal(raw, []byte("null")),
		bytes.Equal(raw, []byte("false")),
		bytes.Equal(raw, []byte(`""`)):
		return "", false
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		if f == 0 {
			return "", false
		}
		return string(raw), true
	}
	return Value{raw: raw}.String(), true
}

// Rows decodes the forecast table. A missing or non-array table is an error.
func (r *Response) Rows() ([]TableRow, error) {
	raw := bytes.TrimSpace(r.TableData)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("response has no table_data")
	}
	var rows []TableRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode table_data: %w", err)
	}
	return rows, nil
}
