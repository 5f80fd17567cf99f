package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"errgate/internal/api"
	"errgate/internal/config"
	"errgate/internal/dedup"
	"errgate/internal/ingest"
	"errgate/internal/logging"
	"errgate/internal/model"
	"errgate/internal/storage"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to config file (yaml or json)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("errgate " + version)
		return
	}

	var mgr *config.Manager
	if *configPath != "" {
		m, err := config.NewManager(config.ResolvePath(*configPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		mgr = m
	} else {
		mgr = config.NewStaticManager(config.DefaultConfig())
	}
	cfg := mgr.Get()
	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting errgate", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	if sink != nil {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := sink.Init(initCtx)
		cancel()
		if err != nil {
			logger.Error("storage schema init failed", "err", err)
			os.Exit(1)
		}
		defer sink.Close()
	}

	deduper := dedup.New(cfg, logger, dedup.Callbacks{})
	defer deduper.Close()

	signals := make(chan model.Signal, cfg.Ingest.ChannelBuffer)
	deduper.Start(ctx, signals, sink)

	ingest.StartREST(ctx, mgr, signals, logger)
	ingest.StartKafka(ctx, mgr, signals, logger)
	ingest.StartFileTail(ctx, mgr, signals, logger)
	api.Start(ctx, mgr, deduper, logger, version)

	if mgr.Path() != "" {
		go mgr.Watch(3*time.Second, func(next *config.Config) {
			logger.Info("config reloaded", "path", mgr.Path())
			deduper.UpdateConfig(next)
		}, func(err error) {
			logger.Warn("config reload failed", "err", err)
		}, ctx.Done())
	}

	<-ctx.Done()
	logger.Info("shutting down")
}
