package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
)

var contextMealKey = "meal"

type mealApi struct {
	*Deps
}

func registerMealAPI(g *echo.Group, deps *Deps) {
	api := mealApi{Deps: deps}

	mg := g.Group("/meals")
	mg.GET("", api.query)
	mg.POST("", api.create)
	mg.DELETE("", api.destroyMultiple)

	// detail endpoints
	dg := mg.Group("/:id", api.mealMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/selections", api.selections)
	dg.GET("/roster", api.roster)
}

// mealMiddleware loads the meal of the :id param into the context.
func (api *mealApi) mealMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		m, err := api.MealSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Is(err, meal.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding meal by ID")
		}
		ctx.Set(contextMealKey, m)
		return next(ctx)
	}
}

func (api *mealApi) contextMeal(ctx echo.Context) meal.Meal {
	m, _ := ctx.Get(contextMealKey).(meal.Meal)
	return m
}

func (api *mealApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	details, err := api.MealSvc.Details(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying meals")
	}
	if details == nil {
		details = []meal.Detail{}
	}
	return respond(ctx, http.StatusOK, details)
}

func (api *mealApi) create(ctx echo.Context) error {
	var data meal.NewMeal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeal")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	m, err := api.MealSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating meal")
	}
	return respond(ctx, http.StatusCreated, meal.NewDetail(m, api.MealSvc.Now()))
}

func (api *mealApi) retrieve(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, meal.NewDetail(api.contextMeal(ctx), api.MealSvc.Now()))
}

func (api *mealApi) update(ctx echo.Context) error {
	orig := api.contextMeal(ctx)

	var data meal.UpdateMeal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMeal")
	}
	nm, err := data.Validate(orig, api.Validate)
	if err != nil {
		return err
	}

	m, err := api.MealSvc.Update(ctx.Request().Context(), orig.ID, nm)
	if err != nil {
		return errors.Wrap(err, "updating meal")
	}
	return respond(ctx, http.StatusOK, meal.NewDetail(m, api.MealSvc.Now()))
}

func (api *mealApi) destroy(ctx echo.Context) error {
	if err := api.MealSvc.Delete(ctx.Request().Context(), api.contextMeal(ctx).ID); err != nil {
		return errors.Wrap(err, "deleting meal")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *mealApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.MealSvc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting meals")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *mealApi) selections(ctx echo.Context) error {
	sel, err := api.Store.GetSelections(ctx.Request().Context(), api.contextMeal(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "getting selections")
	}
	return respond(ctx, http.StatusOK, sel)
}

func (api *mealApi) roster(ctx echo.Context) error {
	roster, err := api.Reporter.Roster(ctx.Request().Context(), api.contextMeal(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "building roster")
	}
	if roster == nil {
		roster = []selection.RosterEntry{}
	}
	return respond(ctx, http.StatusOK, roster)
}
