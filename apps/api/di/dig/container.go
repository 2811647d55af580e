// Package dig_container wires the API dependencies with dig.
package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/ignasimgol/tfm-uoc/apps/api/echo"
	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/progress"
	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/core/user"
	emailsvc "github.com/ignasimgol/tfm-uoc/services/email"
	logsvc "github.com/ignasimgol/tfm-uoc/services/logger"
	"github.com/ignasimgol/tfm-uoc/storage/database"
	"github.com/ignasimgol/tfm-uoc/storage/database/sqlxrepo"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	UserSvc     user.ServiceInterface
	SchoolSvc   school.ServiceInterface
	GroupSvc    group.ServiceInterface
	TrainingSvc training.ServiceInterface
	ProgressSvc progress.ServiceInterface
	Validate    *validator.Validate
	Translator  ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB creates the database when it is missing, then opens and migrates it.
func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, conf.Database.Engine); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		UserSvc:     p.UserSvc,
		SchoolSvc:   p.SchoolSvc,
		GroupSvc:    p.GroupSvc,
		TrainingSvc: p.TrainingSvc,
		ProgressSvc: p.ProgressSvc,
		Validate:    p.Validate,
		Translator:  p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))

	// repositories
	must(c.Provide(sqlxrepo.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepo.NewSchoolRepository, dig.As(new(school.Repository))))
	must(c.Provide(sqlxrepo.NewGroupRepository, dig.As(new(group.Repository))))
	must(c.Provide(sqlxrepo.NewSessionRepository, dig.As(new(training.Repository))))

	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	// services
	must(c.Provide(user.NewService, dig.As(new(user.ServiceInterface))))
	must(c.Provide(school.NewService, dig.As(new(school.ServiceInterface))))
	must(c.Provide(group.NewService, dig.As(new(group.ServiceInterface))))
	must(c.Provide(training.NewService, dig.As(new(training.ServiceInterface))))
	must(c.Provide(progress.NewService, dig.As(new(progress.ServiceInterface))))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
