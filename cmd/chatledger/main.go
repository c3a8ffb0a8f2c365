package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"chatledger/internal/amqp"
	"chatledger/internal/assistant"
	"chatledger/internal/backend"
	"chatledger/internal/chat"
	"chatledger/internal/cli"
	"chatledger/internal/config"
	"chatledger/internal/core"
	apphttp "chatledger/internal/http"
	"chatledger/internal/log"
	"chatledger/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.MustLoadConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("chatledger stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	ids := core.NewIDSource()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger, ids).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}

	opts := []chat.Option{chat.WithLogger(logger), chat.WithIDSource(ids)}

	if cfg.AssistantBaseURL != "" {
		aopts := []assistant.Option{assistant.WithLogger(logger)}
		if cfg.TranscribeBaseURL != "" {
			aopts = append(aopts, assistant.WithTranscribeURL(cfg.TranscribeBaseURL))
		}
		client := assistant.NewClient(cfg.AssistantBaseURL, cfg.AssistantTimeout, aopts...)
		opts = append(opts, chat.WithAnalyzer(client), chat.WithTranscriber(client))
		logger.Info("Assistant enabled", "base_url", cfg.AssistantBaseURL)
	} else {
		logger.Warn("ASSISTANT_BASE_URL not set, chat messages will get the error reply")
	}

	var publisher *amqp.Client
	if cfg.AMQPEnabled() {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			publisher = nil
		} else {
			opts = append(opts, chat.WithPublisher(publisher))
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	ctrl := chat.NewController(res.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, ctrl,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(apphttp.ReadinessCheck(res.Ping)),
		apphttp.WithStatsCacheTTL(cfg.StatsCacheTTL))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting chatledger server", "port", cfg.Port, "backend", cfg.DataBackend)
		return srv.ListenAndServe()
	})

	if cfg.TelegramEnabled() {
		api, updates, stop, err := telegram.Connect(cfg.TelegramToken, cfg.TelegramTimeout)
		if err != nil {
			logger.Error("Telegram bot disabled", log.FieldError, err)
		} else {
			logger.Info("Telegram bot authorized", "username", api.Self.UserName)
			bot := telegram.NewBot(api, ctrl, telegram.WithLogger(logger))
			g.Go(func() error {
				defer stop()
				return bot.Run(gctx, updates)
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, shutdownTimeout,
			srv.Shutdown,
			func(context.Context) error {
				if publisher == nil {
					return nil
				}
				return publisher.Close()
			},
			func(context.Context) error { return res.Close() },
		)
	})

	return g.Wait()
}
