package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cantine/core/student"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// studentMiddleware loads the student of the token into the context.
func studentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.StudentID == "" {
				return errHttpForbidden
			}

			s, err := svc.GetByID(ctx.Request().Context(), claims.StudentID)
			if err != nil {
				if errors.Is(err, student.ErrNotFound) {
					return errHttpForbidden
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(contextStudentKey, s)
			return next(ctx)
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	if s, ok := ctx.Get(contextStudentKey).(student.Student); ok {
		return s, nil
	}
	return student.Student{}, errUnauthorized
}
