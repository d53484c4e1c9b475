package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/platformsh-client/internal/app"
	"github.com/florianilch/platformsh-client/internal/observability"
	"github.com/florianilch/platformsh-client/internal/platform"
)

// shutdownTimeout bounds flushing of exported log records on exit.
const shutdownTimeout = 5 * time.Second

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	r := &runner{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		environ: os.Environ,
	}
	return r.rootCommand().Run(ctx, args)
}

// runner carries the process I/O so commands can be exercised in tests.
type runner struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	environ func() []string
}

func (r *runner) rootCommand() *cli.Command {
	return &cli.Command{
		Name:      "platformsh",
		Usage:     "Platform.sh API client",
		Reader:    r.stdin,
		Writer:    r.stdout,
		ErrWriter: r.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otel)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "api--accounts-url",
				Usage: "accounts API and identity base URL",
				Value: app.DefaultConfigAccountsURL,
			},
			&cli.StringFlag{
				Name:  "api--us-url",
				Usage: "US region base URL",
				Value: app.DefaultConfigUSURL,
			},
			&cli.StringFlag{
				Name:  "api--eu-url",
				Usage: "EU region base URL",
				Value: app.DefaultConfigEUURL,
			},
			&cli.StringFlag{
				Name:  "metrics--textfile",
				Usage: "write client counters in Prometheus text format to this file on exit",
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "API token storage (env|file|keyring)",
				Value: string(app.DefaultConfigAuthStorage),
			},
			&cli.StringFlag{
				Name:  "session--storage",
				Usage: "session token persistence (none|env|file|keyring)",
				Value: string(app.DefaultConfigSessionStorage),
			},
		},
		Commands: []*cli.Command{
			r.subscriptionsCommand(),
			r.environmentsCommand(),
			r.requestCommand(),
			r.authCommand(),
		},
	}
}

// setup loads configuration and installs logging. The returned shutdown is never nil.
func (r *runner) setup(ctx context.Context, cmd *cli.Command) (*app.Config, observability.ShutdownFunc, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, r.environ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := observability.Instrument(ctx, observability.Config{
		Level:        cfg.LogLevel,
		Format:       string(cfg.LogFormat),
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPProtocol: string(cfg.Telemetry.OTLPProtocol),
		Writer:       r.stderr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	return cfg, shutdown, nil
}

// withConfig wraps an action with config loading and log flushing.
func (r *runner) withConfig(action func(context.Context, *cli.Command, *app.Config) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		cfg, shutdown, err := r.setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if shutdownErr := shutdown(shutdownCtx); shutdownErr != nil {
				err = errors.Join(err, fmt.Errorf("flushing logs: %w", shutdownErr))
			}
		}()

		return action(ctx, cmd, cfg)
	}
}

// withClient wraps an action that needs an API client.
func (r *runner) withClient(action func(context.Context, *cli.Command, *platform.Client) error) cli.ActionFunc {
	return r.withConfig(func(ctx context.Context, cmd *cli.Command, cfg *app.Config) error {
		application, err := app.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}
		err = action(ctx, cmd, application.Client())
		if metricsErr := application.WriteMetrics(); metricsErr != nil {
			err = errors.Join(err, metricsErr)
		}
		return err
	})
}
