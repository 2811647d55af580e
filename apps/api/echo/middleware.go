package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

// roleMiddleware lets through active users having one of `roles`.
func (s *Server) roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := s.getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if core.ContainsString(roles, usr.Role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func (s *Server) teacherMiddleware() echo.MiddlewareFunc { return s.roleMiddleware(user.RoleTeacher) }
func (s *Server) studentMiddleware() echo.MiddlewareFunc { return s.roleMiddleware(user.RoleStudent) }

// schoolMiddleware requires the authenticated user to belong to a school.
func (s *Server) schoolMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := s.getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if !usr.HasSchool() {
			return core.ErrNoSchool
		}
		return next(ctx)
	}
}

// countryMiddleware rejects requests whose country header is not in `allowed`; an empty list allows everyone.
func countryMiddleware(header string, allowed []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if len(allowed) == 0 {
				return next(ctx)
			}
			country := strings.ToUpper(strings.TrimSpace(ctx.Request().Header.Get(header)))
			if core.ContainsString(allowed, country) {
				return next(ctx)
			}
			return errAccessDenied
		}
	}
}
