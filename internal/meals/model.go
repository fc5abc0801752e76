package meals

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Number is a float64 that tolerates the webhook's loose typing: JSON
// numbers, numeric strings, null. Anything unparsable decodes to NaN so
// downstream filters can tell "absent/garbage" apart from zero.
type Number float64

// UnmarshalJSON accepts numbers and numeric strings.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = Number(math.NaN())
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = Number(math.NaN())
			return nil
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = Number(math.NaN())
		return nil
	}
	*n = Number(f)
	return nil
}

// MarshalJSON writes null for NaN, which encoding/json cannot represent.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Valid reports whether the value parsed to a real number.
func (n Number) Valid() bool {
	return !math.IsNaN(float64(n))
}

// MealRecord is one logged meal order as returned by the history webhook.
// Records are authoritative server-side; clients only read them.
type MealRecord struct {
	FoodItem   string `json:"food_item"`
	Quantity   Number `json:"quantity"`
	UnitPrice  Number `json:"unit_price"`
	TotalPrice Number `json:"total_price"`
	Date       string `json:"date"`
	Timestamp  string `json:"timestamp,omitempty"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// When parses the record's date field, falling back to timestamp.
// The second return is false when neither parses.
func (r MealRecord) When() (time.Time, bool) {
	for _, raw := range []string{r.Date, r.Timestamp} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
