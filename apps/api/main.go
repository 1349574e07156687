package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"

	"go.uber.org/zap"

	"github.com/mugilan0610/institute-management-system/apps/api/echo"
	"github.com/mugilan0610/institute-management-system/apps/shared"
	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/services/email"
	"github.com/mugilan0610/institute-management-system/services/logger"
	"github.com/mugilan0610/institute-management-system/services/notify"
	"github.com/mugilan0610/institute-management-system/services/queue"
	"github.com/mugilan0610/institute-management-system/storage/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		return err
	}
	logger := logsvc.NewLogger(zl.Named("api"), conf)
	defer logger.Sync()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal("setting up database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up queue & notifications
	rdb := queue.NewRedisClient(conf)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	q, err := queue.New(conf, rdb, logger)
	if err != nil {
		logger.Fatal("setting up queue", err)
	}
	dispatcher := notify.NewDispatcher(q, logger)

	svcs, err := shared.NewServices(conf, db, shared.SQLRepos(db), dispatcher)
	if err != nil {
		logger.Fatal("setting up services", err)
	}

	// =========================================================================
	// Initialize App

	logger.Info("Application initializing", zap.String("version", conf.Build))
	defer logger.Info("Application stopped")

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if conf.Queue.Backend != "redis" {
		// the in-memory queue is only visible to this process
		worker := notify.NewWorker(q, emailsvc.New(conf, logger), logger)
		go func() {
			if err := worker.Run(workerCtx); err != nil {
				logger.Error("notification worker stopped", err)
			}
		}()
	}

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Zap:           zl.Named("http"),
			DB:            db,
			Redis:         rdb,
			StudentSvc:    svcs.Students,
			CourseSvc:     svcs.Courses,
			ResultSvc:     svcs.Results,
			AttendanceSvc: svcs.Attendance,
			Translator:    svcs.Translator,
		},
	)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus collectors of the API server.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.DefaultServeMux.Handle("/metrics", server.Metrics().Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error("debug server closed", err)
		}
	}()

	// =========================================================================
	// Start API Service

	go server.Start()
	logger.Info("API listening", zap.String("addr", conf.Server.Addr))

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		return err

	case sig := <-server.ShutdownSignal():
		logger.Info("Start shutdown...", zap.String("signal", sig.String()))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)
			if err = server.Close(); err != nil {
				return err
			}
		}
		dispatcher.Wait()
	}
	return nil
}

func setUpDB(conf *core.Config) (*database.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout*3)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
