package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"chatledger/internal/amqp"
	"chatledger/internal/cli"
	"chatledger/internal/config"
	"chatledger/internal/log"
	gsheet "chatledger/internal/sheets/google"
	"chatledger/internal/storage"
	"chatledger/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.MustLoadConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout)

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("ledger-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("ledger-worker stopped")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	logger.Info("Starting ledger-worker")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}

	sheet, err := gsheet.NewWithCredentials(ctx, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		repo.Close()
		return err
	}
	if err := sheet.EnsureHeader(ctx); err != nil {
		logger.Warn("Could not verify sheet header", log.FieldError, err)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		repo.Close()
		return err
	}

	mirror := worker.NewMirrorWorker(repo, sheet, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx, consumer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, shutdownTimeout,
			func(context.Context) error { return consumer.Close() },
			func(context.Context) error { return repo.Close() },
		)
	})

	err = g.Wait()
	logger.Info("Mirror summary", "mirrored", mirror.Mirrored())
	return err
}
