package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Measurement is a numeric sensor value that may be missing.
// Null, NaN, infinite and non-numeric inputs all decode to an invalid Measurement, never to zero.
type Measurement struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid Measurement for v unless v is NaN or infinite
func Float(v float64) Measurement {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measurement{}
	}
	return Measurement{Float64: v, Valid: true}
}

// Get returns the value and whether it is present
func (m Measurement) Get() (float64, bool) {
	return m.Float64, m.Valid
}

func (m Measurement) String() string {
	if !m.Valid {
		return "null"
	}
	return strconv.FormatFloat(m.Float64, 'f', -1, 64)
}

// MarshalJSON encodes missing values as null
func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Float64)
}

// UnmarshalJSON accepts numbers and numeric strings; anything else is treated as missing
func (m *Measurement) UnmarshalJSON(data []byte) error {
	*m = Measurement{}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		*m = Float(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*m = Float(f)
		}
	}
	return nil
}

// Scan implements sql.Scanner
func (m *Measurement) Scan(src interface{}) error {
	var n sql.NullFloat64
	if err := n.Scan(src); err != nil {
		return err
	}
	if !n.Valid {
		*m = Measurement{}
		return nil
	}
	*m = Float(n.Float64)
	return nil
}

// Value implements driver.Valuer
func (m Measurement) Value() (driver.Value, error) {
	if !m.Valid {
		return nil, nil
	}
	return m.Float64, nil
}
