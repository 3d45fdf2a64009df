package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/programme-lv/autoprogcomp/httpserver"
	"github.com/programme-lv/autoprogcomp/logger"
	"github.com/programme-lv/autoprogcomp/teams"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	var rootCmd = &cobra.Command{
		Use:           "autoprogcomp",
		Short:         "Codeforces scoreboard for a spreadsheet",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")

	withApp := func(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx := logger.WithLogger(cmd.Context(), log.Logger)
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			return fn(ctx, a, args)
		}
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Update the scoreboard once",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			res, err := a.runner.Run(ctx)
			if err != nil {
				return err
			}
			log.Info().Str("run_id", res.RunID).Msg("scoreboard updated")
			return nil
		}),
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Update the scoreboard now and then on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			return ignoreCancel(a.runner.Loop(ctx))
		}),
	}

	var noLoop bool
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, updating on the schedule in the background",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			srv := httpserver.NewHttpServer(a.runner, a.scoreboard.Compute, httpserver.Options{
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Token:          a.cfg.Server.Token,
				Version:        version,
				Env:            os.Getenv("APC_ENV"),
			})

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info().Str("address", a.cfg.Server.Address).Msg("starting server")
				return srv.Start(ctx, a.cfg.Server.Address)
			})
			if !noLoop {
				g.Go(func() error {
					return ignoreCancel(a.runner.Loop(ctx))
				})
			}
			return g.Wait()
		}),
	}
	serveCmd.Flags().BoolVar(&noLoop, "no-loop", false, "Only update when asked over HTTP")

	var previewCmd = &cobra.Command{
		Use:   "preview",
		Short: "Compute the scoreboard and print it without writing to the sheet",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			grid, err := a.sheet.Read(ctx)
			if err != nil {
				return fmt.Errorf("failed to read sheet: %w", err)
			}
			p := tea.NewProgram(newPreviewModel(ctx, grid, a.scoreboard.Compute), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(previewModel); ok && m.err != nil {
				return m.err
			}
			return nil
		}),
	}

	var makeTeamsCmd = &cobra.Command{
		Use:   "maketeams",
		Short: "Read a team roster from stdin and print the teams literal of a contest command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := teams.Parse(cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), teams.Format(parsed))
			return nil
		},
	}

	var archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Inspect archived Codeforces responses",
	}

	var archiveLsCmd = &cobra.Command{
		Use:   "ls RUN_ID",
		Short: "List the API calls archived for a run",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if a.archive == nil {
				return errors.New("no archive backend configured")
			}
			calls, err := a.archive.Calls(ctx, args[0])
			if err != nil {
				return err
			}
			for _, call := range calls {
				fmt.Println(call)
			}
			return nil
		}),
	}

	rootCmd.AddCommand(runCmd, watchCmd, serveCmd, previewCmd, makeTeamsCmd, archiveCmd)
	archiveCmd.AddCommand(archiveLsCmd)

	return rootCmd
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
