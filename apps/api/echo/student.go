package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

var contextObjectKey = "object"

type studentApi struct {
	*Deps
}

func registerStudentAPI(g *echo.Group, deps *Deps) {
	api := studentApi{Deps: deps}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.DELETE("", api.destroyMultiple)
	sg.POST("/import", api.importStudents)

	// detail endpoints
	dg := sg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// objectMiddleware loads the student of the :id param into the context.
func (api *studentApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s, err := api.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Is(err, student.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding student by ID")
		}
		ctx.Set(contextObjectKey, s)
		return next(ctx)
	}
}

func (api *studentApi) object(ctx echo.Context) student.Student {
	s, _ := ctx.Get(contextObjectKey).(student.Student)
	return s
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.StudentSvc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return respond(ctx, http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	s, err := api.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return respond(ctx, http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, api.object(ctx))
}

func (api *studentApi) update(ctx echo.Context) error {
	orig := api.object(ctx)

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	ns, err := data.Validate(orig, api.Validate)
	if err != nil {
		return err
	}

	s, err := api.StudentSvc.Update(ctx.Request().Context(), orig.ID, ns)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return respond(ctx, http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.StudentSvc.Delete(ctx.Request().Context(), api.object(ctx).ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.StudentSvc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) importStudents(ctx echo.Context) error {
	var data selection.StudentImportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentImportRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	job, err := api.Reconciler.ImportStudents(ctx.Request().Context(), data.Data, nil)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return respond(ctx, http.StatusOK, newImportJobResponse(job))
}
