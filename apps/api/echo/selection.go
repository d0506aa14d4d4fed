package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core/selection"
)

type (
	selectionApi struct {
		*Deps
	}

	NotifyRequest struct {
		MealID string `json:"meal_id" validate:"required"`
	}

	NotifyResponse struct {
		Notified int `json:"notified"`
	}

	ImportJobResponse struct {
		*selection.ImportJob
		RetryPayload string `json:"retry_payload"`
	}

	SelectionImportResponse struct {
		Job        ImportJobResponse    `json:"job"`
		Selections selection.Selections `json:"selections"`
	}

	StudentSelectionResponse struct {
		Selections []selection.StudentMeal `json:"selections"`
	}
)

func newImportJobResponse(job *selection.ImportJob) ImportJobResponse {
	if job.Failures == nil {
		job.Failures = []selection.RowFailure{}
	}
	return ImportJobResponse{ImportJob: job, RetryPayload: job.RetryPayload()}
}

func registerSelectionAPI(g *echo.Group, deps *Deps) {
	api := selectionApi{Deps: deps}

	g.POST("/notify/unselected", api.notifyUnselected)

	sg := g.Group("/selections")
	sg.GET("", api.stats)
	sg.POST("/batch", api.batch)
	sg.POST("/import", api.importSelections)
	sg.POST("/import-one", api.importOne)
}

func registerStudentSelectionAPI(g *echo.Group, deps *Deps) {
	api := selectionApi{Deps: deps}

	g.GET("/selection", api.studentMeals)
	g.POST("/selection", api.studentChoose)
}

func (api *selectionApi) stats(ctx echo.Context) error {
	stats, err := api.Reporter.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	if stats == nil {
		stats = []selection.MealStats{}
	}
	return respond(ctx, http.StatusOK, stats)
}

func (api *selectionApi) batch(ctx echo.Context) error {
	var data selection.BatchAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchAssignment")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	if err := api.Assigner.Assign(ctx.Request().Context(), data.StudentIDs, data.MealID, data.Policy); err != nil {
		return errors.Wrap(err, "assigning")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *selectionApi) importSelections(ctx echo.Context) error {
	var data selection.ImportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImportRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	if _, err := api.MealSvc.GetByID(ctx.Request().Context(), data.MealID); err != nil {
		return errors.Wrap(err, "finding meal")
	}

	res, err := api.Reconciler.ImportSelections(ctx.Request().Context(), data.Data, data.MealID, data.Method, nil)
	if err != nil {
		return errors.Wrap(err, "importing selections")
	}
	return respond(ctx, http.StatusOK, SelectionImportResponse{
		Job:        newImportJobResponse(res.Job),
		Selections: res.Selections,
	})
}

func (api *selectionApi) importOne(ctx echo.Context) error {
	var data selection.SelectionImport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectionImport")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	if err := api.Store.ImportMealSelection(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "importing meal selection")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *selectionApi) notifyUnselected(ctx echo.Context) error {
	var data NotifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotifyRequest")
	}
	if err := api.Validate.Struct(&data); err != nil {
		return err
	}

	n, err := api.Reminder.NotifyUnselected(ctx.Request().Context(), data.MealID)
	if err != nil {
		if errors.Is(err, selection.ErrNoRecipients) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return errors.Wrap(err, "notifying unselected students")
	}
	return respond(ctx, http.StatusOK, NotifyResponse{Notified: n})
}

func (api *selectionApi) studentMeals(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	meals, err := api.Reporter.StudentMeals(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "listing student meals")
	}
	return respond(ctx, http.StatusOK, StudentSelectionResponse{Selections: meals})
}

func (api *selectionApi) studentChoose(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data selection.StudentChoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentChoice")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	if err := api.Assigner.StudentAssign(ctx.Request().Context(), s.ID, data.MealID, data.MealType); err != nil {
		return errors.Wrap(err, "choosing meal")
	}
	return respond(ctx, http.StatusOK, nil)
}
