package meals

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"testing"
)

func TestReducePerFoodItem(t *testing.T) {
	records := []MealRecord{
		{FoodItem: "Rice", Quantity: 2, TotalPrice: 100, Date: "2025-01-10"},
		{FoodItem: "Rice", Quantity: 1, TotalPrice: 50, Date: "2025-01-11"},
		{FoodItem: "Dal", Quantity: 1, TotalPrice: 40, Date: "2025-01-10"},
	}
	agg := Reduce(records)

	rice := agg.PerFoodItem["Rice"]
	if rice.Quantity != 3 || rice.TotalPrice != 150 || rice.Count != 2 {
		t.Errorf("rice totals = %+v", rice)
	}
	dal := agg.PerFoodItem["Dal"]
	if dal.Quantity != 1 || dal.TotalPrice != 40 || dal.Count != 1 {
		t.Errorf("dal totals = %+v", dal)
	}
}

func TestReduceTotalConservation(t *testing.T) {
	records := sampleRecords()
	agg := Reduce(records)

	var want float64
	for _, r := range records {
		want += float64(r.TotalPrice)
	}
	if got := agg.TotalSpent(); math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalSpent = %v, want %v", got, want)
	}
}

func TestReduceUnparsableContributions(t *testing.T) {
	var rec MealRecord
	if err := json.Unmarshal([]byte(`{"food_item":"Ghost","quantity":"??","total_price":"n/a","date":"2025-01-20"}`), &rec); err != nil {
		t.Fatal(err)
	}
	agg := Reduce([]MealRecord{rec})

	ghost := agg.PerFoodItem["Ghost"]
	if ghost.Quantity != 1 {
		t.Errorf("unparsable quantity should contribute 1, got %v", ghost.Quantity)
	}
	if ghost.TotalPrice != 0 {
		t.Errorf("unparsable price should contribute 0, got %v", ghost.TotalPrice)
	}
	if agg.PerDay["2025-01-20"] != 0 {
		t.Errorf("per-day sum = %v", agg.PerDay["2025-01-20"])
	}
}

func TestReduceDayAndMonthKeys(t *testing.T) {
	records := []MealRecord{
		{FoodItem: "Rice", Quantity: 1, TotalPrice: 50, Date: "2025-01-10"},
		{FoodItem: "Dal", Quantity: 1, TotalPrice: 40, Date: "2025-01-10"},
		{FoodItem: "Roti", Quantity: 1, TotalPrice: 20, Date: "2025-02-03"},
	}
	agg := Reduce(records)

	if agg.PerDay["2025-01-10"] != 90 {
		t.Errorf("per-day = %v", agg.PerDay)
	}
	if agg.PerMonth["2025-01"] != 90 || agg.PerMonth["2025-02"] != 20 {
		t.Errorf("per-month = %v", agg.PerMonth)
	}
}

func TestSeriesChronological(t *testing.T) {
	records := []MealRecord{
		{FoodItem: "Roti", TotalPrice: 20, Quantity: 1, Date: "2025-02-03"},
		{FoodItem: "Rice", TotalPrice: 50, Quantity: 1, Date: "2025-01-10"},
		{FoodItem: "Dal", TotalPrice: 40, Quantity: 1, Date: "2025-01-31"},
	}
	series := Reduce(records).DailySeries()

	if !sort.StringsAreSorted(series.Labels) {
		t.Errorf("labels not sorted: %v", series.Labels)
	}
	wantLabels := []string{"2025-01-10", "2025-01-31", "2025-02-03"}
	wantValues := []float64{50, 40, 20}
	if !reflect.DeepEqual(series.Labels, wantLabels) || !reflect.DeepEqual(series.Values, wantValues) {
		t.Errorf("series = %+v", series)
	}
}

func TestReduceFreshEachCall(t *testing.T) {
	records := []MealRecord{{FoodItem: "Rice", Quantity: 1, TotalPrice: 50, Date: "2025-01-10"}}
	first := Reduce(records)
	second := Reduce(records)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated reduction of the same list diverged")
	}
	if second.PerFoodItem["Rice"].TotalPrice != 50 {
		t.Error("reduction accumulated across calls")
	}
}
