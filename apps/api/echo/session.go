package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core/training"
)

var monthParam = "month"

type sessionApi struct {
	*Server
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := sessionApi{s}

	sg := g.Group("/sessions", jwt, s.studentMiddleware())
	sg.GET("", api.queryMonth)
	sg.GET("/all", api.queryAll)
	sg.GET("/:date", api.retrieve)
	sg.PUT("/:date", api.save)
	sg.DELETE("/:date", api.destroy)
}

// queryMonth returns the sessions of `?month=YYYY-MM` (the current month by default).
func (api sessionApi) queryMonth(ctx echo.Context) error {
	var month Month
	if err := month.Bind(ctx, monthParam); err != nil {
		return err
	}
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sessions, err := api.TrainingSvc.QueryMonth(ctx.Request().Context(), ctxUsr.ID, month.Year, month.Month)
	if err != nil {
		return errors.Wrap(err, "querying month sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api sessionApi) queryAll(ctx echo.Context) error {
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sessions, err := api.TrainingSvc.QueryByStudent(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api sessionApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sess, err := api.TrainingSvc.Get(ctx.Request().Context(), ctxUsr.ID, ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "finding session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

// save logs the session of `:date`, replacing the one already logged that day.
func (api sessionApi) save(ctx echo.Context) error {
	var data training.LogSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LogSession")
	}
	data.Date = ctx.Param("date")
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.ProgressSvc.RecordSession(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "recording session")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api sessionApi) destroy(ctx echo.Context) error {
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.TrainingSvc.Delete(ctx.Request().Context(), ctxUsr.ID, ctx.Param("date")); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
