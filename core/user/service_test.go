package user_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/user"
	emailsvc "github.com/ignasimgol/tfm-uoc/services/email"
	"github.com/ignasimgol/tfm-uoc/storage/database/sqlxrepo"
	"github.com/ignasimgol/tfm-uoc/tests"
)

const pwd = "Mw9$tq!Lx2"

type env struct {
	ctx    context.Context
	db     *sql.DB
	conf   *core.Config
	repo   user.Repository
	svc    user.ServiceInterface
	mailer *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) env {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	db := testutil.PrepareDB(t)
	repo := sqlxrepo.NewUserRepository(db)
	mailer := testutil.NewMailer(conf, logger)
	return env{
		ctx:    context.Background(),
		db:     db,
		conf:   conf,
		repo:   repo,
		svc:    user.NewService(repo, mailer, conf),
		mailer: mailer,
	}
}

func TestService_Create(t *testing.T) {
	e := setup(t)
	validate, _ := testutil.NewValidator()

	nu := user.NewUser{
		Name:            "  Jane Doe ",
		Email:           " Jane@Example.com",
		Role:            "Student",
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	require.NoError(t, nu.Validate(e.ctx, validate, e.svc))
	usr, err := e.svc.Create(e.ctx, nu)
	require.NoError(t, err)

	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Jane Doe", usr.Name)
	assert.Equal(t, "jane@example.com", usr.Email)
	assert.True(t, usr.IsStudent())
	assert.True(t, usr.Active())
	assert.NoError(t, usr.CheckPassword(pwd))

	got, err := e.svc.GetByEmail(e.ctx, "JANE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	// same email again
	dup := user.NewUser{Name: "Other", Email: "jane@example.com", Role: "teacher", Password: pwd, PasswordConfirm: pwd}
	err = dup.Validate(e.ctx, validate, e.svc)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "email", vErr.Fields[0].Field)

	assert.NoError(t, e.svc.CheckEmailUniqueness(e.ctx, "jane@example.com", usr))
}

func TestNewUser_Validate(t *testing.T) {
	e := setup(t)
	validate, _ := testutil.NewValidator()
	testutil.LoadCommonPasswords(testutil.NewLogger(e.conf))

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr bool
	}{
		{"valid", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "teacher", Password: pwd, PasswordConfirm: pwd}, false},
		{"bad role", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "parent", Password: pwd, PasswordConfirm: pwd}, true},
		{"bad email", user.NewUser{Name: "Ann", Email: "ann", Role: "teacher", Password: pwd, PasswordConfirm: pwd}, true},
		{"mismatch", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "teacher", Password: pwd, PasswordConfirm: pwd + "x"}, true},
		{"too short", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "teacher", Password: "A1$b", PasswordConfirm: "A1$b"}, true},
		{"all numeric", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "teacher", Password: "1234567890", PasswordConfirm: "1234567890"}, true},
		{"no complexity", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "teacher", Password: "abcdefgh1", PasswordConfirm: "abcdefgh1"}, true},
		{"too common", user.NewUser{Name: "Ann", Email: "ann@example.com", Role: "teacher", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"}, true},
		{"similar to name", user.NewUser{Name: "Jonathan Smithers", Email: "js@example.com", Role: "teacher", Password: "Jonathan.Smithers1", PasswordConfirm: "Jonathan.Smithers1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(e.ctx, validate, e.svc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_Query(t *testing.T) {
	e := setup(t)
	alice := testutil.CreateUser(t, e.repo, "Alice", "alice@example.com", "", user.RoleStudent, "", false)
	bob := testutil.CreateUser(t, e.repo, "Bob", "bob@example.com", "", user.RoleTeacher, "", false)
	carl := testutil.CreateUser(t, e.repo, "Carl", "carl@school.org", "", user.RoleStudent, "", false)

	ids := func(users []user.User) []string {
		res := make([]string, 0, len(users))
		for _, u := range users {
			res = append(res, u.ID)
		}
		return res
	}

	tests := []struct {
		name   string
		filter *user.QueryFilter
		want   []string
	}{
		{"all by name", nil, []string{alice.ID, bob.ID, carl.ID}},
		{"search name", &user.QueryFilter{Search: "ALI"}, []string{alice.ID}},
		{"search email", &user.QueryFilter{Search: "example.com"}, []string{alice.ID, bob.ID}},
		{"students", &user.QueryFilter{Roles: []string{user.RoleStudent}}, []string{alice.ID, carl.ID}},
		{"by IDs", &user.QueryFilter{IDs: []string{carl.ID, bob.ID}}, []string{bob.ID, carl.ID}},
		{"no IDs", &user.QueryFilter{IDs: []string{}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := e.svc.Query(e.ctx, tt.filter, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(users))
		})
	}

	// unknown ordering fields are ignored
	users, err := e.svc.Query(e.ctx, nil, []core.DBOrdering{{Field: "name; DROP TABLE users"}, {Field: "email"}})
	require.NoError(t, err)
	assert.Equal(t, []string{carl.ID, bob.ID, alice.ID}, ids(users))
}

func TestService_UpdateAndJoinSchool(t *testing.T) {
	e := setup(t)
	repo, svc := e.repo, e.svc
	schRepo := sqlxrepo.NewSchoolRepository(e.db)
	sch1 := testutil.CreateSchool(t, schRepo, "North", "NORTH1")
	sch2 := testutil.CreateSchool(t, schRepo, "South", "SOUTH1")

	usr := testutil.CreateUser(t, repo, "Dana", "dana@example.com", pwd, user.RoleTeacher, "", false)

	inactive := false
	usr, err := svc.Update(e.ctx, usr, user.UpdateUser{Name: "Dana Scully", IsActive: &inactive})
	require.NoError(t, err)
	got, err := svc.GetByID(e.ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Scully", got.Name)
	assert.False(t, got.Active())

	got, err = svc.JoinSchool(e.ctx, got, sch1.ID, true)
	require.NoError(t, err)
	got, err = svc.GetByID(e.ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSchoolAdmin(sch1.ID))

	// still admin when re-joining their own school
	got, err = svc.JoinSchool(e.ctx, got, sch1.ID, false)
	require.NoError(t, err)
	assert.True(t, got.IsSchoolAdmin(sch1.ID))

	// admin rights are lost in another school
	_, err = svc.JoinSchool(e.ctx, got, sch2.ID, false)
	require.NoError(t, err)
	got, err = svc.GetByID(e.ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, sch2.ID, got.SchoolID.String)
	assert.False(t, got.IsAdmin)
}

func TestService_PasswordReset(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repo, "Eve", "eve@example.com", pwd, user.RoleStudent, "", false)

	assert.Equal(t, user.ErrNotFound, errors.Cause(e.svc.RequestPasswordReset(e.ctx, "nobody@example.com")))

	require.NoError(t, e.svc.RequestPasswordReset(e.ctx, "EVE@example.com"))
	sent := e.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].TemplateName)
	assert.Equal(t, "eve@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "/password-reset/"+user.EncodeUID(usr)+"/")
	assert.Contains(t, sent[0].HTMLContent, "Eve")

	token, err := user.MakeToken(usr, e.conf.SecretKey)
	require.NoError(t, err)
	newPwd := "Nw8&kp!Qz3"

	fieldOf := func(err error) string {
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) || len(vErr.Fields) == 0 {
			return ""
		}
		return vErr.Fields[0].Field
	}

	err = e.svc.ResetPassword(e.ctx, user.ResetUserPassword{UID: "!!", Token: token, Password: newPwd, PasswordConfirm: newPwd})
	assert.Equal(t, "uid", fieldOf(err))

	err = e.svc.ResetPassword(e.ctx, user.ResetUserPassword{UID: user.EncodeUID(usr), Token: "bad-token", Password: newPwd, PasswordConfirm: newPwd})
	assert.Equal(t, "token", fieldOf(err))

	err = e.svc.ResetPassword(e.ctx, user.ResetUserPassword{UID: user.EncodeUID(usr), Token: token, Password: newPwd, PasswordConfirm: newPwd})
	require.NoError(t, err)

	got, err := e.svc.GetByID(e.ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword(newPwd))

	// the token is single use: the password hash changed
	err = e.svc.ResetPassword(e.ctx, user.ResetUserPassword{UID: user.EncodeUID(usr), Token: token, Password: pwd, PasswordConfirm: pwd})
	assert.Equal(t, "token", fieldOf(err))
}

func TestService_Delete(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repo, "Finn", "finn@example.com", "", user.RoleStudent, "", false)

	require.NoError(t, e.svc.Delete(e.ctx, usr.ID))
	_, err := e.svc.GetByID(e.ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	assert.Equal(t, user.ErrNotFound, errors.Cause(e.svc.Delete(e.ctx, usr.ID)))
}
