package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/config"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/infrastructure/storage/postgres"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/utils/logger"
)

func main() {
	conf := config.MustLoad()
	log := logger.New(conf.Env)

	if err := run(conf, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(conf *config.Config, log *slog.Logger) error {
	storage, err := postgres.New(conf)
	if err != nil {
		return err
	}
	defer storage.Close()

	registry := apply.NewRegistry()
	entityStore := postgres.NewEntityStateRepository(storage.Pool(), log)
	for _, entityType := range []cache.Type{
		cache.TypeCustomer, cache.TypeProduct, cache.TypePricelist,
		cache.TypeStock, cache.TypeOrder, cache.TypePayment, cache.TypeOther,
	} {
		if err := registry.Register(string(entityType), entityStore); err != nil {
			return err
		}
	}

	mux, services := api.New(storage, conf, registry, log)

	// зависшие после падения элементы возвращаются в очередь сразу на старте,
	// осиротевшие сессии проваливаются, иначе устройства останутся
	// заблокированными по одной-активной-сессии
	if n, err := services.Queue.RecoverStale(context.Background(), conf.Sync.StaleAfter); err != nil {
		log.Error("startup stale recovery failed", "error", err)
	} else if n > 0 {
		log.Info("stale queue items recovered on startup", "count", n)
	}
	if n, err := services.SyncLog.RecoverStale(context.Background(), conf.Sync.StaleAfter); err != nil {
		log.Error("startup session recovery failed", "error", err)
	} else if n > 0 {
		log.Info("stale sessions failed on startup", "count", n)
	}

	jobs, err := scheduleJobs(conf, services, log)
	if err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	server := &http.Server{
		Addr:    conf.Server.RunAddress,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", conf.Server.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}

func scheduleJobs(conf *config.Config, services *api.Services, log *slog.Logger) (*cron.Cron, error) {
	jobs := cron.New()

	_, err := jobs.AddFunc(conf.Sync.SweepSchedule, func() {
		if _, err := services.Cache.SweepExpired(context.Background()); err != nil {
			log.Error("cache sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	_, err = jobs.AddFunc(conf.Sync.RecoverySchedule, func() {
		n, err := services.Queue.RecoverStale(context.Background(), conf.Sync.StaleAfter)
		if err != nil {
			log.Error("stale recovery failed", "error", err)
		} else if n > 0 {
			log.Info("stale queue items recovered", "count", n)
		}
		n, err = services.SyncLog.RecoverStale(context.Background(), conf.Sync.StaleAfter)
		if err != nil {
			log.Error("stale session recovery failed", "error", err)
		} else if n > 0 {
			log.Info("stale sessions failed", "count", n)
		}
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}
