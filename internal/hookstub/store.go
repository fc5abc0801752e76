// Package hookstub is a development stand-in for the workflow-automation
// webhook: it answers chat relays, records meal submissions, and serves
// meal history in the same doubly-wrapped shape the real workflow
// produces, so local round-trips exercise the full normalizer.
package hookstub

import (
	"context"
	"sync"

	"hostelmess/internal/meals"
)

// MealStore persists submitted meals per student. The known flag on
// ListMeals distinguishes "student never seen" (a validation failure in
// the real workflow) from "student with no meals yet".
type MealStore interface {
	SaveMeal(ctx context.Context, studentID string, rec meals.MealRecord) error
	ListMeals(ctx context.Context, studentID string) (records []meals.MealRecord, known bool, err error)
}

// Memory is the map-backed MealStore used by default and in tests.
type Memory struct {
	mu    sync.RWMutex
	byStu map[string][]meals.MealRecord
}

// NewMemory creates an empty in-memory meal store.
func NewMemory() *Memory {
	return &Memory{byStu: make(map[string][]meals.MealRecord)}
}

// SaveMeal appends a record for the student, registering the student when
// first seen.
func (m *Memory) SaveMeal(_ context.Context, studentID string, rec meals.MealRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byStu[studentID] = append(m.byStu[studentID], rec)
	return nil
}

// ListMeals returns the student's records.
func (m *Memory) ListMeals(_ context.Context, studentID string) ([]meals.MealRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, known := m.byStu[studentID]
	out := make([]meals.MealRecord, len(records))
	copy(out, records)
	return out, known, nil
}

// Register marks a student as known without any meals, for seeding tests.
func (m *Memory) Register(studentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byStu[studentID]; !ok {
		m.byStu[studentID] = []meals.MealRecord{}
	}
}
