package main

import (
	"log"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	appfs "github.com/trezcool/shule/fs"
	emailsvc "github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	core.SetMailTemplatesFS(appfs.FS)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	usrRepo := sqlxrepos.NewUserRepository(db)
	schoolRepo := sqlxrepos.NewSchoolRepository(db)

	// start CLI
	cli := commandLine{
		db:        db,
		usrRepo:   usrRepo,
		schoolSvc: school.NewService(db, schoolRepo, usrRepo, emailsvc.NewConsoleService()),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
