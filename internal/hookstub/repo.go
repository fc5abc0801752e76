package hookstub

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"hostelmess/internal/meals"
)

// Postgres is a MealStore backed by Postgres, for stub deployments that
// should survive restarts.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a Postgres-backed store and ensures its schema.
func NewPostgres(connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	return p, p.ensureSchema(context.Background())
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mess_students (
			student_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS mess_meals (
			id          BIGSERIAL PRIMARY KEY,
			student_id  TEXT NOT NULL,
			food_item   TEXT NOT NULL,
			quantity    INTEGER NOT NULL,
			unit_price  NUMERIC NOT NULL,
			total_price NUMERIC NOT NULL,
			meal_date   DATE NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS mess_meals_student_idx ON mess_meals (student_id);
	`)
	return err
}

// Register records a student so later fetches distinguish them from
// unknown IDs even before their first meal.
func (p *Postgres) Register(ctx context.Context, studentID string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO mess_students (student_id) VALUES ($1)
		ON CONFLICT (student_id) DO NOTHING
	`, studentID)
	return err
}

// Close closes the underlying connection.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// SaveMeal inserts one submitted record, registering the student on first
// contact.
func (p *Postgres) SaveMeal(ctx context.Context, studentID string, rec meals.MealRecord) error {
	if err := p.Register(ctx, studentID); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO mess_meals (student_id, food_item, quantity, unit_price, total_price, meal_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, studentID, rec.FoodItem, int(rec.Quantity), float64(rec.UnitPrice), float64(rec.TotalPrice), rec.Date)
	return err
}

// ListMeals returns the student's records, newest first. A registered
// student with no rows is still known; only an unregistered ID is not.
func (p *Postgres) ListMeals(ctx context.Context, studentID string) ([]meals.MealRecord, bool, error) {
	var known bool
	if err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM mess_students WHERE student_id = $1)
	`, studentID).Scan(&known); err != nil {
		return nil, false, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT food_item, quantity, unit_price, total_price, meal_date
		FROM mess_meals
		WHERE student_id = $1
		ORDER BY meal_date DESC, id DESC
	`, studentID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var records []meals.MealRecord
	for rows.Next() {
		var (
			rec      meals.MealRecord
			quantity int
			unit     float64
			total    float64
			date     time.Time
		)
		if err := rows.Scan(&rec.FoodItem, &quantity, &unit, &total, &date); err != nil {
			return nil, false, err
		}
		rec.Quantity = meals.Number(quantity)
		rec.UnitPrice = meals.Number(unit)
		rec.TotalPrice = meals.Number(total)
		rec.Date = date.Format("2006-01-02")
		records = append(records, rec)
	}
	return records, known, rows.Err()
}
