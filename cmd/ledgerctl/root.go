package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"chatledger/internal/amqp"
	"chatledger/internal/backend"
	"chatledger/internal/chat"
	"chatledger/internal/cli"
	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/log"
)

// app is the ledger opened for a single command invocation.
type app struct {
	ctrl    *chat.Controller
	backend *backend.Result
	events  *amqp.Client
	logger  *log.Logger
}

func (a *app) Close() error {
	if a.events != nil {
		a.events.Close()
	}
	return a.backend.Close()
}

// clock is replaced in tests.
var clock = time.Now

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and edit the chatledger ledgers",
		Long:          `ledgerctl reads the same environment as the chatledger server (DATA_BACKEND, SQLITE_DB_PATH, SEED_FILE, AMQP_URL) and operates on its ledgers directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.LoadEnvFile()
		},
	}
	root.AddCommand(newSummaryCmd(), newAddCmd(), newExportCmd())
	return root
}

// openApp wires the configured backend into a controller. Events are
// published only when publish is set and AMQP is configured.
func openApp(ctx context.Context, cmd *cobra.Command, publish bool) (*app, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr()).WithComponent(log.ComponentCLI)

	ids := core.NewIDSource()
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger, ids).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	a := &app{backend: res, logger: logger}
	opts := []chat.Option{chat.WithLogger(logger), chat.WithIDSource(ids), chat.WithClock(clock)}
	if publish && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction will not be mirrored", log.FieldError, err)
		} else {
			a.events = client
			opts = append(opts, chat.WithPublisher(client))
		}
	}
	a.ctrl = chat.NewController(res.Store, opts...)
	return a, nil
}

// resolveMonth returns the month named by year and month, filling zero
// values from the current date.
func resolveMonth(year, month int) (ledger.Month, error) {
	now := ledger.MonthOf(clock())
	if year == 0 {
		year = now.Year
	}
	if month == 0 {
		month = int(now.Month)
	}
	return ledger.NewMonth(year, month)
}
