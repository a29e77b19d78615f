package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erikmagkekse/nfs-exports/agent"
	"github.com/erikmagkekse/nfs-exports/model"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    model.AppName,
		Usage:   "manage the NFS exports table for shared mountpoints",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "agent-url",
				Usage:   "run share commands against a remote agent instead of the local table",
				Sources: cli.EnvVars("NFS_EXPORTS_AGENT_URL"),
			},
			&cli.StringFlag{
				Name:    "agent-token",
				Usage:   "bearer token for --agent-url",
				Sources: cli.EnvVars("NFS_EXPORTS_AGENT_TOKEN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogger(cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "agent",
				Usage:  "serve the exports API",
				Action: runAgent,
			},
			enableCommand(),
			disableCommand(),
			statusCommand(),
			validateCommand(),
			commitCommand(),
			listCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func setupLogger(l string) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(l); err == nil && l != "" {
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}).With().Timestamp().Logger()
}

func runAgent(ctx context.Context, _ *cli.Command) error {
	log.Info().Str("version", version).Str("commit", commit).Msg("starting nfs-exports agent")

	cfg, err := env.ParseAs[model.AgentConfig]()
	if err != nil {
		return fmt.Errorf("parse agent config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := agent.NewAgent(&cfg, version, commit).Start(ctx); err != nil {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
