package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core/training"
)

func registerRewardAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	g.GET("/rewards", func(ctx echo.Context) error {
		ctxUsr, err := s.getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		res, err := s.ProgressSvc.Rewards(ctx.Request().Context(), ctxUsr.ID)
		if err != nil {
			return errors.Wrap(err, "computing rewards")
		}
		return ctx.JSON(http.StatusOK, res)
	}, jwt, s.studentMiddleware())
}

func registerActivityAPI(g *echo.Group) {
	g.GET("/activities", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, training.ActivityTypes)
	})
}
