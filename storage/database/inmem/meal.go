package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/core/meal"
)

type mealRepository struct {
	db *DB
}

var _ meal.Repository = (*mealRepository)(nil)

func NewMealRepository(db *DB) *mealRepository {
	return &mealRepository{db: db}
}

func (repo *mealRepository) CreateMeal(_ context.Context, m meal.Meal) (meal.Meal, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.meals[m.ID] = m
	return m, nil
}

func (repo *mealRepository) QueryMeals(_ context.Context, ordering ...core.DBOrdering) ([]meal.Meal, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	meals := make([]meal.Meal, 0, len(repo.db.meals))
	for _, m := range repo.db.meals {
		meals = append(meals, m)
	}

	ord := core.DBOrdering{Field: "selection_start"}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(meals, func(i, j int) bool {
		a, b := meals[i], meals[j]
		if !ord.Ascending {
			a, b = b, a
		}
		switch ord.Field {
		case "name":
			return a.Name < b.Name
		case "selection_end":
			return a.SelectionEnd.Before(b.SelectionEnd)
		case "effective_start":
			return a.EffectiveStart.Before(b.EffectiveStart)
		case "effective_end":
			return a.EffectiveEnd.Before(b.EffectiveEnd)
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.SelectionStart.Before(b.SelectionStart)
		}
	})
	return meals, nil
}

func (repo *mealRepository) GetMealByID(_ context.Context, id string) (meal.Meal, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if m, ok := repo.db.meals[id]; ok {
		return m, nil
	}
	return meal.Meal{}, meal.ErrNotFound
}

func (repo *mealRepository) UpdateMeal(_ context.Context, m meal.Meal) (meal.Meal, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.meals[m.ID]
	if !ok {
		return meal.Meal{}, meal.ErrNotFound
	}
	m.CreatedAt = orig.CreatedAt
	repo.db.meals[m.ID] = m
	return m, nil
}

func (repo *mealRepository) DeleteMealsByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.meals, id)
		delete(repo.db.selections, id)
	}
	return nil
}
