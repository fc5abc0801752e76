package meals

import (
	"sort"
	"strings"
	"time"
)

// SortKey selects the field a history view is ordered by.
type SortKey string

// Sort keys supported by the history view.
const (
	SortByDate     SortKey = "date"
	SortByPrice    SortKey = "price"
	SortByQuantity SortKey = "quantity"
	SortByFoodItem SortKey = "foodItem"
)

// SortOrder selects ascending or descending order.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Filter describes one history view: range filters plus sort. The zero
// value matches everything and sorts by date descending. Filters are
// derived fresh per request and never persisted.
type Filter struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	FoodItem    string
	MinPrice    *float64
	MaxPrice    *float64
	MinQuantity *float64
	MaxQuantity *float64
	SortBy      SortKey
	SortOrder   SortOrder
}

// Apply returns the filtered, sorted view of records. The input slice is
// never mutated, so applying the same filter twice yields the same result.
//
// Records whose date does not parse are excluded whenever a date bound is
// active; the comparison cannot be made, so the record cannot satisfy an
// inclusive bound.
func Apply(records []MealRecord, f Filter) []MealRecord {
	out := make([]MealRecord, 0, len(records))
	needle := strings.ToLower(strings.TrimSpace(f.FoodItem))

	for _, r := range records {
		if f.DateFrom != nil || f.DateTo != nil {
			when, ok := r.When()
			if !ok {
				continue
			}
			if f.DateFrom != nil && when.Before(*f.DateFrom) {
				continue
			}
			if f.DateTo != nil && when.After(endOfDay(*f.DateTo)) {
				continue
			}
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.FoodItem), needle) {
			continue
		}
		// NaN fails every comparison, so unparsable numerics drop out of
		// any active range filter.
		price := float64(r.TotalPrice)
		if f.MinPrice != nil && !(price >= *f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && !(price <= *f.MaxPrice) {
			continue
		}
		qty := float64(r.Quantity)
		if f.MinQuantity != nil && !(qty >= *f.MinQuantity) {
			continue
		}
		if f.MaxQuantity != nil && !(qty <= *f.MaxQuantity) {
			continue
		}
		out = append(out, r)
	}

	sortRecords(out, f.SortBy, f.SortOrder)
	return out
}

// endOfDay widens a date-only upper bound to the end of that day so the
// bound stays inclusive for records carrying a time of day.
func endOfDay(t time.Time) time.Time {
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}

func sortRecords(records []MealRecord, key SortKey, order SortOrder) {
	if key == "" {
		key = SortByDate
	}
	if order == "" {
		if key == SortByDate {
			order = Desc
		} else {
			order = Asc
		}
	}
	desc := order == Desc

	sort.SliceStable(records, func(i, j int) bool {
		less := lessByKey(records[i], records[j], key)
		if desc {
			return lessByKey(records[j], records[i], key)
		}
		return less
	})
}

func lessByKey(a, b MealRecord, key SortKey) bool {
	switch key {
	case SortByPrice:
		return float64(a.TotalPrice) < float64(b.TotalPrice)
	case SortByQuantity:
		return float64(a.Quantity) < float64(b.Quantity)
	case SortByFoodItem:
		return strings.ToLower(a.FoodItem) < strings.ToLower(b.FoodItem)
	default:
		at, aok := a.When()
		bt, bok := b.When()
		if !aok || !bok {
			// unparsable dates sort before everything else
			return !aok && bok
		}
		return at.Before(bt)
	}
}
