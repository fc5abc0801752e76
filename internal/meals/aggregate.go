package meals

import "sort"

// FoodItemTotals accumulates one food item's share of the filtered view.
type FoodItemTotals struct {
	Quantity   float64 `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
	Count      int     `json:"count"`
}

// Aggregate holds the chart reductions for one filtered record list.
// It is derived data: always recomputed from scratch, never accumulated
// across calls.
type Aggregate struct {
	PerFoodItem map[string]FoodItemTotals `json:"per_food_item"`
	PerDay      map[string]float64        `json:"per_day"`
	PerMonth    map[string]float64        `json:"per_month"`
}

// Series is a chart-ready pair of parallel label/value slices.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Reduce computes chart aggregates from an already-filtered record list.
// An unparsable quantity contributes 1 and unparsable prices contribute 0.
// Records whose date does not parse still count toward the per-item totals
// but cannot be keyed into the day/month maps.
func Reduce(records []MealRecord) Aggregate {
	agg := Aggregate{
		PerFoodItem: make(map[string]FoodItemTotals),
		PerDay:      make(map[string]float64),
		PerMonth:    make(map[string]float64),
	}

	for _, r := range records {
		qty := float64(r.Quantity)
		if !r.Quantity.Valid() {
			qty = 1
		}
		price := float64(r.TotalPrice)
		if !r.TotalPrice.Valid() {
			price = 0
		}

		totals := agg.PerFoodItem[r.FoodItem]
		totals.Quantity += qty
		totals.TotalPrice += price
		totals.Count++
		agg.PerFoodItem[r.FoodItem] = totals

		if when, ok := r.When(); ok {
			agg.PerDay[when.Format("2006-01-02")] += price
			agg.PerMonth[when.Format("2006-01")] += price
		}
	}
	return agg
}

// TotalSpent sums the priced contributions of the filtered view.
func (a Aggregate) TotalSpent() float64 {
	var sum float64
	for _, t := range a.PerFoodItem {
		sum += t.TotalPrice
	}
	return sum
}

// DailySeries converts the per-day map into a chart series. Keys are
// ISO dates, so lexicographic order is chronological order.
func (a Aggregate) DailySeries() Series {
	return toSeries(a.PerDay)
}

// MonthlySeries converts the per-month map into a chart series.
func (a Aggregate) MonthlySeries() Series {
	return toSeries(a.PerMonth)
}

func toSeries(m map[string]float64) Series {
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, k := range labels {
		values[i] = m[k]
	}
	return Series{Labels: labels, Values: values}
}
