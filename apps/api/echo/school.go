package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

type schoolApi struct {
	*Server
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := schoolApi{s}

	sg := g.Group("/schools", jwt)
	sg.GET("", api.search)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.POST("/:id/join", api.join)
}

// SchoolMembership is returned whenever the authenticated user's school changes, along with a token carrying it.
type SchoolMembership struct {
	School school.School `json:"school"`
	User   user.User     `json:"user"`
	Token  string        `json:"token"`
}

func (api schoolApi) search(ctx echo.Context) error {
	schools, err := api.SchoolSvc.Search(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "searching schools")
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sch, usr, err := api.SchoolSvc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return api.membership(ctx, http.StatusCreated, sch, usr)
}

func (api schoolApi) retrieve(ctx echo.Context) error {
	sch, err := api.SchoolSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding school by ID")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api schoolApi) join(ctx echo.Context) error {
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sch, usr, err := api.SchoolSvc.Join(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "joining school")
	}
	return api.membership(ctx, http.StatusOK, sch, usr)
}

func (api schoolApi) membership(ctx echo.Context, code int, sch school.School, usr user.User) error {
	token, err := api.jwt.generateToken(api.jwt.userClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, SchoolMembership{School: sch, User: usr, Token: token})
}
