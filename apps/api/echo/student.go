package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/user"
)

var groupFilterParam = "group"

type studentApi struct {
	*Server
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := studentApi{s}

	sg := g.Group("/students", jwt, s.schoolMiddleware, api.teacherOrAdminMiddleware)
	sg.GET("", api.query)
	sg.PUT("/:id/group", api.reassign)
}

// StudentMembership is a student of the school and the group they currently belong to.
type StudentMembership struct {
	Student user.User   `json:"student"`
	GroupID null.String `json:"group_id"`
}

// query lists the school's students with their current group; `?group=<id>` keeps the members of that group.
func (api studentApi) query(ctx echo.Context) error {
	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schoolID := ctxUsr.SchoolID.String

	filter := &user.QueryFilter{SchoolID: schoolID, Roles: []string{user.RoleStudent}}
	filter.Search = ctx.QueryParam("search")
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.UserSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	memberships, err := api.GroupSvc.Memberships(ctx.Request().Context(), schoolID, ids)
	if err != nil {
		return errors.Wrap(err, "querying memberships")
	}

	groupID := ctx.QueryParam(groupFilterParam)
	res := make([]StudentMembership, 0, len(students))
	for _, student := range students {
		gid, ok := memberships[student.ID]
		if groupID != "" && gid != groupID {
			continue
		}
		res = append(res, StudentMembership{Student: student, GroupID: null.NewString(gid, ok)})
	}
	return ctx.JSON(http.StatusOK, res)
}

// reassign moves a student of the school to another group, or out of every group when `group_id` is null.
func (api studentApi) reassign(ctx echo.Context) error {
	var data group.Reassignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reassignment")
	}

	ctxUsr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	schoolID := ctxUsr.SchoolID.String

	student, err := api.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	if !student.IsStudent() || student.SchoolID.String != schoolID {
		return errHttpNotFound
	}

	if err := api.GroupSvc.Reassign(ctx.Request().Context(), schoolID, student.ID, data.GroupID); err != nil {
		return errors.Wrap(err, "reassigning student")
	}
	return ctx.JSON(http.StatusOK, StudentMembership{Student: student, GroupID: data.GroupID})
}

func (api studentApi) teacherOrAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := api.getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if ctxUsr.IsTeacher() || ctxUsr.IsAdmin {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
