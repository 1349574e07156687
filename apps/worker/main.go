package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/services/email"
	"github.com/mugilan0610/institute-management-system/services/logger"
	"github.com/mugilan0610/institute-management-system/services/notify"
	"github.com/mugilan0610/institute-management-system/services/queue"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		panic(err)
	}
	logger := logsvc.NewLogger(zl.Named("worker"), conf)
	defer logger.Sync()

	if conf.Queue.Backend != "redis" {
		logger.Fatal("the worker only consumes the redis queue", zap.String("backend", conf.Queue.Backend))
	}
	rdb := queue.NewRedisClient(conf)
	q, err := queue.New(conf, rdb, logger)
	if err != nil {
		logger.Fatal("setting up queue", err)
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := notify.NewWorker(q, emailsvc.New(conf, logger), logger)
	logger.Info("Worker started", zap.String("queue", conf.Queue.Key))
	if err = worker.Run(ctx); err != nil {
		logger.Error("worker stopped", err)
	}
	logger.Info("Worker stopped")
}
