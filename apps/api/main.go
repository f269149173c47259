package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	appfs "github.com/trezcool/shule/fs"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "SHULE : ", log.LstdFlags|log.Lshortfile), core.Conf)
	logger.Enable(!core.Conf.Debug)

	core.SetMailTemplatesFS(appfs.FS)

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrRepo := sqlxrepos.NewUserRepository(db)
	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc)
	schoolSvc := school.NewService(db, schoolRepo, usrRepo, mailSvc)

	app := echoapi.NewServer(&echoapi.Options{
		Address:   core.Conf.ServerAddress(),
		UserSvc:   usrSvc,
		SchoolSvc: schoolSvc,
		Logger:    logger,
	})

	go app.Start()

	// stop gracefully on SIGINT/SIGTERM or when a fatal error flags a shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("received signal, stopping", sig)
	case <-app.Shutdown():
		logger.Info("fatal error, stopping")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("stopping server", err)
	}
}
