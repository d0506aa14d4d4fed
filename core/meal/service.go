package meal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/cantine/core"
)

var ErrNotFound = errors.New("meal not found")

type (
	// Repository persists Meals. Deleting a Meal deletes its selection records.
	Repository interface {
		CreateMeal(ctx context.Context, m Meal) (Meal, error)
		QueryMeals(ctx context.Context, ordering ...core.DBOrdering) ([]Meal, error)
		GetMealByID(ctx context.Context, id string) (Meal, error)
		UpdateMeal(ctx context.Context, m Meal) (Meal, error)
		DeleteMealsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		nowFunc func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

func (svc *Service) Now() time.Time { return svc.nowFunc() }

// SetNowFunc overrides the clock used to derive meal states.
func (svc *Service) SetNowFunc(now func() time.Time) { svc.nowFunc = now }

func (svc *Service) Create(ctx context.Context, nm NewMeal) (Meal, error) {
	now := time.Now().UTC()
	m := Meal{
		ID:             uuid.New().String(),
		Name:           nm.Name,
		SelectionStart: nm.SelectionStart.UTC(),
		SelectionEnd:   nm.SelectionEnd.UTC(),
		EffectiveStart: nm.EffectiveStart.UTC(),
		EffectiveEnd:   nm.EffectiveEnd.UTC(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateMeal(ctx, m)
}

func (svc *Service) Query(ctx context.Context, ordering ...core.DBOrdering) ([]Meal, error) {
	return svc.repo.QueryMeals(ctx, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Meal, error) {
	return svc.repo.GetMealByID(ctx, id)
}

// Update overwrites the schedule & display fields of the Meal identified by id.
// nm is expected to be the validated result of UpdateMeal.Validate.
func (svc *Service) Update(ctx context.Context, id string, nm NewMeal) (Meal, error) {
	m := Meal{
		ID:             id,
		Name:           nm.Name,
		SelectionStart: nm.SelectionStart.UTC(),
		SelectionEnd:   nm.SelectionEnd.UTC(),
		EffectiveStart: nm.EffectiveStart.UTC(),
		EffectiveEnd:   nm.EffectiveEnd.UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	return svc.repo.UpdateMeal(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteMealsByID(ctx, ids...)
}

// Details returns every Meal along with its state at the service's current time.
func (svc *Service) Details(ctx context.Context, ordering ...core.DBOrdering) ([]Detail, error) {
	meals, err := svc.repo.QueryMeals(ctx, ordering...)
	if err != nil {
		return nil, err
	}
	now := svc.nowFunc()
	details := make([]Detail, 0, len(meals))
	for _, m := range meals {
		details = append(details, NewDetail(m, now))
	}
	return details, nil
}
