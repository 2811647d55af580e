package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/ignasimgol/tfm-uoc/apps/api/echo"
	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/progress"
	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/stats"
	"github.com/ignasimgol/tfm-uoc/core/user"
	"github.com/ignasimgol/tfm-uoc/tests"
)

type schoolEnv struct {
	testEnv
	sch                school.School
	teacher, stranger  user.User
	ana, leo, kim      user.User
	teacherToken       string
	anaToken, strToken string
}

// setupSchool creates a school with a teacher and three students, plus a teacher of another school.
func setupSchool(t *testing.T) schoolEnv {
	e := schoolEnv{testEnv: setup(t)}
	e.sch = testutil.CreateSchool(t, e.schRepo, "Pinecrest", "PC0001")
	other := testutil.CreateSchool(t, e.schRepo, "Riverside", "RS0001")

	e.teacher = testutil.CreateUser(t, e.usrRepo, "Tess", "tess@example.com", pwd, user.RoleTeacher, e.sch.ID, false)
	e.stranger = testutil.CreateUser(t, e.usrRepo, "Stan", "stan@example.com", pwd, user.RoleTeacher, other.ID, false)
	student := func(name string) user.User {
		return testutil.CreateUser(t, e.usrRepo, name, name+"@example.com", pwd, user.RoleStudent, e.sch.ID, false)
	}
	e.ana, e.leo, e.kim = student("ana"), student("leo"), student("kim")

	e.teacherToken = e.getToken(t, e.teacher)
	e.anaToken = e.getToken(t, e.ana)
	e.strToken = e.getToken(t, e.stranger)
	return e
}

func userNames(users []user.User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return names
}

func Test_groupApi_create(t *testing.T) {
	e := setupSchool(t)
	homeless := testutil.CreateUser(t, e.usrRepo, "Hal", "hal@example.com", pwd, user.RoleTeacher, "", false)

	tests := []httpTest{
		{
			name: "school required", token: e.getToken(t, homeless), body: marchallObj(t, group.NewGroup{Name: "Blue"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: core.ErrNoSchool.Error()}),
		},
		{
			name: "teacher required", token: e.anaToken, body: marchallObj(t, group.NewGroup{Name: "Blue"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "name required", token: e.teacherToken, body: marchallObj(t, group.NewGroup{Name: " "}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/groups"
		t.Run(tt.name, func(t *testing.T) {
			e.serve(t, tt)
		})
	}

	t.Run("created", func(t *testing.T) {
		rec := e.serve(t, httpTest{
			method: http.MethodPost, path: "/v1/groups", token: e.teacherToken, wantCode: http.StatusCreated,
			body: marchallObj(t, group.NewGroup{Name: " Blue "}),
		})
		var grp group.Group
		unmarshall(t, rec, &grp)
		assert.NotEmpty(t, grp.ID)
		assert.Equal(t, "Blue", grp.Name)
		assert.Equal(t, e.teacher.ID, grp.TeacherID)
		assert.Equal(t, e.sch.ID, grp.SchoolID)
	})
}

func Test_groupApi_query(t *testing.T) {
	e := setupSchool(t)
	colleague := testutil.CreateUser(t, e.usrRepo, "Cole", "cole@example.com", pwd, user.RoleTeacher, e.sch.ID, false)
	now := time.Now()
	testutil.CreateGroup(t, e.grpRepo, "Blue", e.teacher, now.Add(-time.Hour))
	testutil.CreateGroup(t, e.grpRepo, "Red", e.teacher, now)
	testutil.CreateGroup(t, e.grpRepo, "Green", colleague)
	testutil.CreateGroup(t, e.grpRepo, "Other", e.stranger)

	groupNames := func(t *testing.T, token, path string) []string {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: path, token: token, wantCode: http.StatusOK})
		var grps []group.Group
		unmarshall(t, rec, &grps)
		names := make([]string, 0, len(grps))
		for _, grp := range grps {
			names = append(names, grp.Name)
		}
		return names
	}

	assert.Equal(t, []string{"Red", "Blue"}, groupNames(t, e.teacherToken, "/v1/groups"))
	assert.Equal(t, []string{"Blue", "Green", "Red"}, groupNames(t, e.teacherToken, "/v1/groups?school=1"))
	assert.Equal(t, []string{"Blue", "Green", "Red"}, groupNames(t, e.anaToken, "/v1/groups?school=1"))
	assert.Equal(t, []string{"Other"}, groupNames(t, e.strToken, "/v1/groups"))

	e.serve(t, httpTest{method: http.MethodGet, path: "/v1/groups", token: e.anaToken, wantCode: http.StatusForbidden})
}

func Test_groupApi_members(t *testing.T) {
	e := setupSchool(t)
	grp := testutil.CreateGroup(t, e.grpRepo, "Blue", e.teacher)
	path := "/v1/groups/" + grp.ID + "/members"
	outsider := testutil.CreateUser(t, e.usrRepo, "Out", "out@example.com", pwd, user.RoleStudent, e.stranger.SchoolID.String, false)

	add := func(student user.User) []byte {
		return marchallObj(t, group.AddMember{StudentID: student.ID})
	}
	tests := []httpTest{
		{
			name: "other school's group", token: e.strToken, body: add(e.ana),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "teacher required", token: e.anaToken, body: add(e.ana),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "student required", token: e.teacherToken, body: add(e.teacher),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: group.ErrNotAStudent.Error()}),
		},
		{
			name: "same school required", token: e.teacherToken, body: add(outsider),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: group.ErrOtherSchool.Error()}),
		},
		{
			name: "unknown student", token: e.teacherToken, body: marchallObj(t, group.AddMember{StudentID: "nope"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
		{name: "added", token: e.teacherToken, body: add(e.leo), wantCode: http.StatusCreated},
		{name: "added again", token: e.teacherToken, body: add(e.ana), wantCode: http.StatusCreated},
		{
			name: "already a member", token: e.teacherToken, body: add(e.leo),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: group.ErrAlreadyAMember.Error()}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = path
		t.Run(tt.name, func(t *testing.T) {
			e.serve(t, tt)
		})
	}

	rec := e.serve(t, httpTest{method: http.MethodGet, path: path, token: e.teacherToken, wantCode: http.StatusOK})
	var members []user.User
	unmarshall(t, rec, &members)
	assert.Equal(t, []string{"ana", "leo"}, userNames(members))
}

func Test_groupApi_progress(t *testing.T) {
	e := setupSchool(t)
	grp := testutil.CreateGroup(t, e.grpRepo, "Blue", e.teacher)
	now := time.Now().UTC()
	testutil.AddMember(t, e.grpRepo, grp, e.ana, now.Add(-2*time.Hour))
	testutil.AddMember(t, e.grpRepo, grp, e.leo, now.Add(-time.Hour))

	day := func(daysAgo int) string { return core.FormatDate(now.AddDate(0, 0, -daysAgo)) }
	testutil.CreateSession(t, e.trnRepo, e.ana, grp.ID, day(1), "running", 30, 3)
	testutil.CreateSession(t, e.trnRepo, e.ana, grp.ID, day(2), "running", 40, 5)
	testutil.CreateSession(t, e.trnRepo, e.leo, grp.ID, day(90), "football", 60, 4)
	testutil.CreateSession(t, e.trnRepo, e.ana, "", day(3), "yoga", 20, 2)

	base := "/v1/groups/" + grp.ID

	t.Run("access", func(t *testing.T) {
		e.serve(t, httpTest{
			method: http.MethodGet, path: base + "/totals", token: e.strToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		})
		e.serve(t, httpTest{
			method: http.MethodGet, path: base + "/totals", token: e.anaToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		})
		e.serve(t, httpTest{
			method: http.MethodGet, path: "/v1/groups/nope", token: e.teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		})
	})

	t.Run("totals", func(t *testing.T) {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: base + "/totals", token: e.teacherToken, wantCode: http.StatusOK})
		var got progress.GroupStats
		unmarshall(t, rec, &got)

		assert.Equal(t, []string{"ana", "leo"}, userNames(got.Students))
		assert.Equal(t, stats.StudentStats{TotalMinutes: 70, Sessions: 2, AvgEnjoyment: 4}, got.ByStudent[e.ana.ID])
		assert.Equal(t, stats.StudentStats{TotalMinutes: 60, Sessions: 1, AvgEnjoyment: 4}, got.ByStudent[e.leo.ID])
		require.Len(t, got.TopActivities, 2)
		assert.Equal(t, "running", got.TopActivities[0].Activity)
		assert.Equal(t, "football", got.TopActivities[1].Activity)
	})

	t.Run("kpis", func(t *testing.T) {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: base + "/kpis", token: e.teacherToken, wantCode: http.StatusOK})
		var got progress.GroupKPIs
		unmarshall(t, rec, &got)

		want := stats.GroupTotals{
			Totals:           stats.Totals{Sessions: 3, TotalMinutes: 130, AvgEnjoyment: 4},
			DistinctStudents: 2,
		}
		assert.Equal(t, want, got.Totals)
	})

	t.Run("summary", func(t *testing.T) {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: base + "/summary", token: e.teacherToken, wantCode: http.StatusOK})
		var got progress.ClassSummary
		unmarshall(t, rec, &got)

		assert.Equal(t, stats.Totals{Sessions: 4, TotalMinutes: 150, AvgEnjoyment: 3.5}, got.Totals)
		require.Len(t, got.Students, 2)
		assert.Equal(t, "ana", got.Students[0].Student.Name)
		assert.Equal(t, 90, got.Students[0].Stats.TotalMinutes)
	})

	t.Run("activity", func(t *testing.T) {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: base + "/activity", token: e.teacherToken, wantCode: http.StatusOK})
		var got progress.GroupActivity
		unmarshall(t, rec, &got)

		assert.Len(t, got.Sessions, 2) // the 90 days old session is out of the window
		assert.Equal(t, day(1), got.Latest[e.ana.ID].Date)
		_, ok := got.Latest[e.leo.ID]
		assert.False(t, ok)

		rec = e.serve(t, httpTest{method: http.MethodGet, path: base + "/activity?days=120", token: e.teacherToken, wantCode: http.StatusOK})
		unmarshall(t, rec, &got)
		assert.Len(t, got.Sessions, 3)
		assert.Equal(t, day(90), got.Latest[e.leo.ID].Date)
	})
}

func Test_studentApi(t *testing.T) {
	e := setupSchool(t)
	blue := testutil.CreateGroup(t, e.grpRepo, "Blue", e.teacher)
	red := testutil.CreateGroup(t, e.grpRepo, "Red", e.teacher)
	testutil.AddMember(t, e.grpRepo, blue, e.ana)
	testutil.AddMember(t, e.grpRepo, red, e.leo)
	sess := testutil.CreateSession(t, e.trnRepo, e.ana, blue.ID, "2024-05-01", "running", 30, 3)

	memberships := func(t *testing.T, path string) map[string]null.String {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: path, token: e.teacherToken, wantCode: http.StatusOK})
		var res []echoapi.StudentMembership
		unmarshall(t, rec, &res)
		byName := make(map[string]null.String, len(res))
		for _, sm := range res {
			byName[sm.Student.Name] = sm.GroupID
		}
		return byName
	}

	t.Run("teacher required", func(t *testing.T) {
		e.serve(t, httpTest{
			method: http.MethodGet, path: "/v1/students", token: e.anaToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		})
	})

	t.Run("list", func(t *testing.T) {
		want := map[string]null.String{
			"ana": null.StringFrom(blue.ID),
			"kim": {},
			"leo": null.StringFrom(red.ID),
		}
		assert.Equal(t, want, memberships(t, "/v1/students"))
		assert.Equal(t, map[string]null.String{"leo": null.StringFrom(red.ID)}, memberships(t, "/v1/students?group="+red.ID))
	})

	t.Run("reassign", func(t *testing.T) {
		path := "/v1/students/" + e.ana.ID + "/group"
		e.serve(t, httpTest{
			method: http.MethodPut, path: "/v1/students/" + e.teacher.ID + "/group", token: e.teacherToken,
			body: marchallObj(t, group.Reassignment{GroupID: null.StringFrom(red.ID)}), wantCode: http.StatusNotFound,
		})
		e.serve(t, httpTest{
			method: http.MethodPut, path: path, token: e.teacherToken,
			body: marchallObj(t, group.Reassignment{GroupID: null.StringFrom("nope")}), wantCode: http.StatusNotFound,
		})
		e.serve(t, httpTest{
			method: http.MethodPut, path: path, token: e.teacherToken,
			body: marchallObj(t, group.Reassignment{GroupID: null.StringFrom(red.ID)}), wantCode: http.StatusOK,
		})
		assert.Equal(t, null.StringFrom(red.ID), memberships(t, "/v1/students")["ana"])

		got, err := e.trnRepo.GetSession(e.ctx, e.ana.ID, sess.Date)
		require.NoError(t, err)
		assert.Equal(t, null.StringFrom(red.ID), got.GroupID)

		// out of every group
		e.serve(t, httpTest{
			method: http.MethodPut, path: path, token: e.teacherToken,
			body: marchallObj(t, group.Reassignment{}), wantCode: http.StatusOK,
		})
		assert.Equal(t, null.String{}, memberships(t, "/v1/students")["ana"])
		got, err = e.trnRepo.GetSession(e.ctx, e.ana.ID, sess.Date)
		require.NoError(t, err)
		assert.False(t, got.GroupID.Valid)
	})
}
