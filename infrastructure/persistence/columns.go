package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON column helper types. SQLite has no array or jsonb column type, so
// slices and maps are stored as JSON text on both backends.

// StringSlice stores a []string as a JSON column.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		s = StringSlice{}
	}
	return json.Marshal([]string(s))
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(src any) error {
	return scanJSON(src, (*[]string)(s))
}

// Float64Slice stores a []float64 as a JSON column.
type Float64Slice []float64

// Value implements driver.Valuer.
func (f Float64Slice) Value() (driver.Value, error) {
	if f == nil {
		f = Float64Slice{}
	}
	return json.Marshal([]float64(f))
}

// Scan implements sql.Scanner.
func (f *Float64Slice) Scan(src any) error {
	return scanJSON(src, (*[]float64)(f))
}

// JSONMap stores a map[string]any as a JSON column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}
	return json.Marshal(map[string]any(m))
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	return scanJSON(src, (*map[string]any)(m))
}

// CodeBlockRecord is the JSON shape of one fenced code block.
type CodeBlockRecord struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// CodeBlockSlice stores snippet code blocks as a JSON column.
type CodeBlockSlice []CodeBlockRecord

// Value implements driver.Valuer.
func (c CodeBlockSlice) Value() (driver.Value, error) {
	if c == nil {
		c = CodeBlockSlice{}
	}
	return json.Marshal([]CodeBlockRecord(c))
}

// Scan implements sql.Scanner.
func (c *CodeBlockSlice) Scan(src any) error {
	return scanJSON(src, (*[]CodeBlockRecord)(c))
}

func scanJSON(src, dst any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("scan json column: unsupported source type %T", src)
	}
}
