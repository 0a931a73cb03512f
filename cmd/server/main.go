// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/database"
	"github.com/dreamweave/dreamweave-backend/internal/i18n"
	"github.com/dreamweave/dreamweave-backend/internal/jobs"
	"github.com/dreamweave/dreamweave-backend/internal/router"
	"github.com/dreamweave/dreamweave-backend/internal/services"
	"github.com/dreamweave/dreamweave-backend/internal/store"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	if err := i18n.Initialize(cfg.I18n.LocalesPath); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}
	defer redisClient.Close()

	st := store.NewGormStore(db)

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize asset storage")
	}
	aiService := services.NewAIService(cfg, storageService)
	pipeline := services.NewPipelineService(st, aiService)

	queue := jobs.NewQueue(redisClient, cfg.Redis.Stream, cfg.Redis.Group)
	lock := jobs.NewLock(redisClient, time.Duration(cfg.Workers.LockTTLSecs)*time.Second)
	pool := jobs.NewPool(queue, lock, jobs.RunnerFunc(pipeline.Run), cfg.Workers.Count)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := pool.Start(workerCtx); err != nil {
			logrus.WithError(err).Error("Worker pool stopped with error")
		}
	}()

	r := router.Setup(cfg, st, queue, storageService)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	stopWorkers()
	select {
	case <-workersDone:
	case <-time.After(30 * time.Second):
		logrus.Warn("Worker pool shutdown timed out")
	}

	logrus.Info("Server exited")
}
