package main

import (
	"log"
	"os"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/user"
	emailsvc "github.com/ignasimgol/tfm-uoc/services/email"
	logsvc "github.com/ignasimgol/tfm-uoc/services/logger"
	"github.com/ignasimgol/tfm-uoc/storage/database"
	"github.com/ignasimgol/tfm-uoc/storage/database/sqlxrepo"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	usrRepo := sqlxrepo.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleService(conf, logger), conf)

	// start CLI
	cli := commandLine{
		db:      db,
		engine:  conf.Database.Engine,
		usrRepo: usrRepo,
		schSvc:  school.NewService(db, sqlxrepo.NewSchoolRepository(db), usrSvc),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
