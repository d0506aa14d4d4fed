package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
)

const mealColumns = "id, name, selection_start, selection_end, effective_start, effective_end, created_at, updated_at"

var mealOrderings = map[string]bool{
	"name":            true,
	"selection_start": true,
	"selection_end":   true,
	"effective_start": true,
	"effective_end":   true,
	"created_at":      true,
}

type mealRepository struct {
	db core.DB
}

var _ meal.Repository = (*mealRepository)(nil) // interface compliance check

func NewMealRepository(db core.DB) *mealRepository {
	return &mealRepository{db: db}
}

// trapNoRowsErr maps "no rows" err to meal.ErrNotFound
func (repo mealRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return meal.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo mealRepository) CreateMeal(ctx context.Context, m meal.Meal) (meal.Meal, error) {
	q := repo.db.Rebind(`INSERT INTO meal (` + mealColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		m.ID, m.Name, m.SelectionStart.UTC(), m.SelectionEnd.UTC(), m.EffectiveStart.UTC(), m.EffectiveEnd.UTC(),
		m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	if err != nil {
		return meal.Meal{}, errors.Wrap(err, "inserting meal")
	}
	return repo.GetMealByID(ctx, m.ID)
}

func (repo mealRepository) QueryMeals(ctx context.Context, ordering ...core.DBOrdering) ([]meal.Meal, error) {
	q := `SELECT ` + mealColumns + ` FROM meal` +
		orderBy(ordering, mealOrderings, core.DBOrdering{Field: "selection_start"})

	meals := make([]meal.Meal, 0)
	if err := repo.db.SelectContext(ctx, &meals, q); err != nil {
		return nil, errors.Wrap(err, "querying meals")
	}
	return meals, nil
}

func (repo mealRepository) GetMealByID(ctx context.Context, id string) (meal.Meal, error) {
	var m meal.Meal
	q := repo.db.Rebind(`SELECT ` + mealColumns + ` FROM meal WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &m, q, id); err != nil {
		return meal.Meal{}, repo.trapNoRowsErr(err, "finding meal by ID")
	}
	return m, nil
}

func (repo mealRepository) UpdateMeal(ctx context.Context, m meal.Meal) (meal.Meal, error) {
	q := repo.db.Rebind(`UPDATE meal SET name = ?, selection_start = ?, selection_end = ?, effective_start = ?,
		effective_end = ?, updated_at = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		m.Name, m.SelectionStart.UTC(), m.SelectionEnd.UTC(), m.EffectiveStart.UTC(), m.EffectiveEnd.UTC(),
		m.UpdatedAt.UTC(), m.ID)
	if err != nil {
		return meal.Meal{}, errors.Wrap(err, "updating meal")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return meal.Meal{}, meal.ErrNotFound
	}
	return repo.GetMealByID(ctx, m.ID)
}

// DeleteMealsByID deletes the meals along with their selections (ON DELETE CASCADE).
func (repo mealRepository) DeleteMealsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM meal WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting meals")
	}
	return nil
}
