package main

import (
	"context"
	"os"

	"github.com/mugilan0610/institute-management-system/apps/shared"
	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/services/logger"
	"github.com/mugilan0610/institute-management-system/storage/database"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		panic(err)
	}
	logger := logsvc.NewLogger(zl.Named("admin"), conf)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	db, err := database.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal("opening database", err)
	}

	// students registered from the CLI are not notified
	svcs, err := shared.NewServices(conf, db, shared.SQLRepos(db), nil)
	if err != nil {
		logger.Fatal("setting up services", err)
	}

	// start CLI
	cli := commandLine{
		db:       db.DB.DB,
		students: svcs.Students,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Sync()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
