package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

var (
	contextGroupKey       = "group"
	errGrpNotFoundInCtx   = errors.New("group object not found in echo.Context")
	activityDaysParam     = "days"
	schoolGroupsParam     = "school"
	errHttpTeacherOrAdmin = echo.NewHTTPError(http.StatusForbidden, "only teachers and school admins can list groups")
)

type groupApi struct {
	*Server
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := groupApi{s}

	gg := g.Group("/groups", jwt, s.schoolMiddleware)
	gg.GET("", api.query)
	gg.POST("", api.create, s.teacherMiddleware())

	// detail endpoints
	dg := gg.Group("/:id", api.groupMiddleware)
	dg.GET("", api.retrieve)
	dg.GET("/members", api.queryMembers)
	dg.POST("/members", api.addMember, s.teacherMiddleware())
	dg.GET("/totals", api.totals)
	dg.GET("/kpis", api.kpis)
	dg.GET("/summary", api.summary)
	dg.GET("/activity", api.activity)
}

// Handlers

// query returns the teacher's own groups, or every group of the user's school with `?school=1`.
func (api groupApi) query(ctx echo.Context) error {
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var grps []group.Group
	switch {
	case ctx.QueryParam(schoolGroupsParam) != "":
		grps, err = api.GroupSvc.QueryBySchool(ctx.Request().Context(), ctxUsr.SchoolID.String)
	case ctxUsr.IsTeacher():
		grps, err = api.GroupSvc.QueryByTeacher(ctx.Request().Context(), ctxUsr.ID)
	default:
		return errHttpTeacherOrAdmin
	}
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return ctx.JSON(http.StatusOK, grps)
}

func (api groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	grp, err := api.GroupSvc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api groupApi) retrieve(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api groupApi) queryMembers(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	ids, err := api.GroupSvc.MemberIDs(ctx.Request().Context(), grp.ID)
	if err != nil {
		return errors.Wrap(err, "querying member IDs")
	}
	if len(ids) == 0 {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	students, err := api.UserSvc.Query(ctx.Request().Context(), &user.QueryFilter{IDs: ids}, user.ByNameAsc)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api groupApi) addMember(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}

	var data group.AddMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddMember")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	student, err := api.UserSvc.GetByID(ctx.Request().Context(), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	mbr, err := api.GroupSvc.AddMember(ctx.Request().Context(), grp, student)
	if err != nil {
		return errors.Wrap(err, "adding member")
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api groupApi) totals(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	res, err := api.ProgressSvc.GroupStats(ctx.Request().Context(), grp)
	if err != nil {
		return errors.Wrap(err, "computing group stats")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api groupApi) kpis(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	res, err := api.ProgressSvc.GroupKPIs(ctx.Request().Context(), grp)
	if err != nil {
		return errors.Wrap(err, "computing group KPIs")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api groupApi) summary(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	res, err := api.ProgressSvc.ClassSummary(ctx.Request().Context(), grp)
	if err != nil {
		return errors.Wrap(err, "computing class summary")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api groupApi) activity(ctx echo.Context) error {
	grp, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	res, err := api.ProgressSvc.GroupActivity(ctx.Request().Context(), grp, intParam(ctx, activityDaysParam, 0))
	if err != nil {
		return errors.Wrap(err, "computing group activity")
	}
	return ctx.JSON(http.StatusOK, res)
}

// groupMiddleware loads the `:id` group into the context when it belongs to the school of the authenticated
// user, who must be a teacher or a school admin.
func (api groupApi) groupMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := api.getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		grp, err := api.GroupSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == group.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding group by ID")
		}
		if grp.SchoolID != ctxUsr.SchoolID.String {
			return errHttpNotFound
		}
		if !(ctxUsr.IsTeacher() || ctxUsr.IsSchoolAdmin(grp.SchoolID)) {
			return errHttpForbidden
		}
		ctx.Set(contextGroupKey, grp)
		return next(ctx)
	}
}

func contextGroup(ctx echo.Context) (group.Group, error) {
	grp, ok := ctx.Get(contextGroupKey).(group.Group)
	if !ok {
		return group.Group{}, errors.Wrap(errGrpNotFoundInCtx, "retrieving group from context")
	}
	return grp, nil
}
