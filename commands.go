package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	v1 "github.com/erikmagkekse/nfs-exports/agent/api/v1"
	"github.com/erikmagkekse/nfs-exports/agent/share"
	"github.com/erikmagkekse/nfs-exports/agent/share/nfs"
	"github.com/erikmagkekse/nfs-exports/model"

	"github.com/caarlos0/env/v11"
	"github.com/urfave/cli/v3"
)

var commitFlag = &cli.BoolFlag{
	Name:  "commit",
	Usage: "reload the NFS server after updating the table",
}

// localManager builds a manager for the table named by the environment.
func localManager() (*nfs.Manager, error) {
	cfg, err := env.ParseAs[model.Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return nfs.NewManager(&cfg, nil), nil
}

// remote returns an agent client when --agent-url is set.
func remote(cmd *cli.Command) *v1.Client {
	if u := cmd.String("agent-url"); u != "" {
		return v1.NewClient(strings.TrimSuffix(u, "/"), cmd.String("agent-token"))
	}
	return nil
}

func mountpointArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", cli.Exit("expected exactly one mountpoint argument", 2)
	}
	return cmd.Args().First(), nil
}

func enableCommand() *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "publish a mountpoint with the given share options",
		ArgsUsage: "<mountpoint>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "options", Aliases: []string{"o"}, Value: "on", Usage: "share options, e.g. rw=@10.0.0.0/8,sec=krb5,ro"},
			&cli.BoolFlag{Name: "dry-run", Usage: "print the exports lines instead of writing them"},
			commitFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mp, err := mountpointArg(cmd)
			if err != nil {
				return err
			}
			opts := cmd.String("options")

			if c := remote(cmd); c != nil {
				if cmd.Bool("dry-run") {
					return cli.Exit("--dry-run is not available with --agent-url", 2)
				}
				return c.EnableShare(ctx, v1.ShareRequest{Mountpoint: mp, Options: opts, Commit: cmd.Bool("commit")})
			}

			mgr, err := localManager()
			if err != nil {
				return err
			}
			s := share.New(mp)
			s.SetOptions(model.ProtocolNFS, opts)

			if cmd.Bool("dry-run") {
				lines, err := mgr.Generate(s)
				if err != nil {
					return err
				}
				for _, l := range lines {
					fmt.Fprint(os.Stdout, l)
				}
				return nil
			}

			if err := mgr.Enable(ctx, s); err != nil {
				return err
			}
			if cmd.Bool("commit") {
				return mgr.Commit(ctx)
			}
			return nil
		},
	}
}

func disableCommand() *cli.Command {
	return &cli.Command{
		Name:      "disable",
		Usage:     "remove every exports entry for a mountpoint",
		ArgsUsage: "<mountpoint>",
		Flags:     []cli.Flag{commitFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mp, err := mountpointArg(cmd)
			if err != nil {
				return err
			}

			if c := remote(cmd); c != nil {
				return c.DisableShare(ctx, v1.ShareRequest{Mountpoint: mp, Commit: cmd.Bool("commit")})
			}

			mgr, err := localManager()
			if err != nil {
				return err
			}
			if err := mgr.Disable(ctx, share.New(mp)); err != nil {
				return err
			}
			if cmd.Bool("commit") {
				return mgr.Commit(ctx)
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "report whether a mountpoint is exported; exits 1 when it is not",
		ArgsUsage: "<mountpoint>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mp, err := mountpointArg(cmd)
			if err != nil {
				return err
			}

			var shared bool
			if c := remote(cmd); c != nil {
				resp, err := c.ShareStatus(ctx, mp, model.ProtocolNFS)
				if err != nil {
					return err
				}
				shared = resp.Shared
			} else {
				mgr, err := localManager()
				if err != nil {
					return err
				}
				if shared, err = mgr.IsShared(share.New(mp)); err != nil {
					return err
				}
			}

			if !shared {
				fmt.Fprintf(os.Stdout, "%s not exported\n", mp)
				return cli.Exit("", 1)
			}
			fmt.Fprintf(os.Stdout, "%s exported\n", mp)
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check a share option string without changing anything",
		ArgsUsage: "<options>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("expected exactly one options argument", 2)
			}
			opts := cmd.Args().First()

			if c := remote(cmd); c != nil {
				return c.ValidateOptions(ctx, v1.ValidateRequest{Options: opts})
			}
			translated, err := nfs.Translate(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, translated.String())
			return nil
		},
	}
}

func commitCommand() *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "ask the NFS server to re-read the exports table",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if c := remote(cmd); c != nil {
				return c.Commit(ctx)
			}
			mgr, err := localManager()
			if err != nil {
				return err
			}
			reg := share.NewRegistry()
			if err := mgr.Register(reg); err != nil {
				return err
			}
			return reg.CommitAll(ctx)
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "print the exports table",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var entries []nfs.ExportEntry
			if c := remote(cmd); c != nil {
				resp, err := c.ListExports(ctx)
				if err != nil {
					return err
				}
				entries = resp.Exports
			} else {
				mgr, err := localManager()
				if err != nil {
					return err
				}
				if entries, err = mgr.List(); err != nil {
					return err
				}
			}
			for _, e := range entries {
				fmt.Fprintf(os.Stdout, "%s\t%s(%s)\n", e.Path, e.Host, e.Options)
			}
			return nil
		},
	}
}
