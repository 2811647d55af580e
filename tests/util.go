// Package testutil sets up the config, database and fixtures shared by the tests.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/core/user"
	emailsvc "github.com/ignasimgol/tfm-uoc/services/email"
	logsvc "github.com/ignasimgol/tfm-uoc/services/logger"
	"github.com/ignasimgol/tfm-uoc/storage/database"
)

var (
	templatesOnce sync.Once
	passwordsOnce sync.Once
)

// NewConfig returns the default config, in test mode, on an in-memory sqlite database.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false
	conf.Server.DisableReqLogs = true
	conf.Database.Engine = database.SQLite
	conf.Database.Name = ":memory:"
	return conf
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewMailer returns a mail service that keeps the messages it sends.
func NewMailer(conf *core.Config, logger core.Logger) *emailsvc.ConsoleServiceMock {
	templatesOnce.Do(func() { core.ParseEmailTemplates(logger) })
	return emailsvc.NewConsoleServiceMock(conf, logger)
}

// LoadCommonPasswords loads the common passwords list once per test binary.
func LoadCommonPasswords(logger core.Logger) {
	passwordsOnce.Do(func() { user.LoadCommonPasswords(logger) })
}

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	training.InitValidators(validate, translator)
	return validate, translator
}

// PrepareDB returns a migrated in-memory database, closed when the test ends.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	schoolID string,
	isAdmin bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		SchoolID:  null.NewString(schoolID, schoolID != ""),
		IsAdmin:   isAdmin,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(true)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name, inviteCode string) school.School {
	t.Helper()
	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:       name,
		InviteCode: inviteCode,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateGroup(t *testing.T, repo group.Repository, name string, teacher user.User, createdAt ...time.Time) group.Group {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	grp, err := repo.CreateGroup(context.Background(), group.Group{
		Name:      name,
		TeacherID: teacher.ID,
		SchoolID:  teacher.SchoolID.String,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func AddMember(t *testing.T, repo group.Repository, grp group.Group, student user.User, joinedAt ...time.Time) group.Member {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(joinedAt) > 0 {
		tstamp = joinedAt[0].UTC()
	}
	mbr, err := repo.CreateMember(context.Background(), group.Member{
		GroupID:   grp.ID,
		StudentID: student.ID,
		JoinedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("AddMember() failed: %v", err)
	}
	return mbr
}

// CreateSession logs a session of `student`, in `groupID` when it is not empty.
func CreateSession(
	t *testing.T,
	repo training.Repository,
	student user.User,
	groupID, date, activity string,
	duration, intensity int,
) training.Session {
	t.Helper()
	sess, err := repo.UpsertSession(context.Background(), training.Session{
		StudentID:    student.ID,
		GroupID:      null.NewString(groupID, groupID != ""),
		Date:         date,
		ActivityType: activity,
		Duration:     duration,
		Intensity:    intensity,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}
