package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/matchup-engine/internal/api"
	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/engine"
	"github.com/yourusername/matchup-engine/internal/feed"
	"github.com/yourusername/matchup-engine/internal/health"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/scheduler"
)

var (
	replayStart  string
	replayEnd    string
	exportPath   string
	exportFormat string
	resetFirst   bool
	syncDate     string
	ratingsLimit int
	ratingsAsc   bool
)

func init() {
	replayCmd.Flags().StringVar(&replayStart, "start", "", "First day to replay (YYYY-MM-DD, default replay.start_date)")
	replayCmd.Flags().StringVar(&replayEnd, "end", "", "Last day to replay (YYYY-MM-DD, default replay.end_date)")
	replayCmd.Flags().StringVarP(&exportPath, "export", "o", "", "Write per-game training rows to this file")
	replayCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: csv or json (default replay.export_format)")
	replayCmd.Flags().BoolVar(&resetFirst, "reset", false, "Reset all stored state before replaying")

	syncCmd.Flags().StringVar(&syncDate, "date", "", "Day to sync (YYYY-MM-DD, default yesterday UTC)")

	ratingsCmd.Flags().IntVarP(&ratingsLimit, "limit", "n", 0, "Show at most n competitors")
	ratingsCmd.Flags().BoolVar(&ratingsAsc, "asc", false, "Lowest rated first")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Register every competitor the data source knows",
	RunE: func(cmd *cobra.Command, args []string) error {
		orchestrator, err := newOrchestrator()
		if err != nil {
			return err
		}
		svc, err := newSyncService(orchestrator)
		if err != nil {
			return err
		}

		summary, err := svc.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Registered %d new competitors (%d errors)\n", summary.Registered, summary.Errors)
		return nil
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay finished games over a date range and report model accuracy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start, end, err := replayRange()
		if err != nil {
			return err
		}

		if resetFirst {
			if err := repos.Reset(ctx); err != nil {
				return err
			}
		}

		var opts []engine.Option
		var exporter *engine.Exporter
		path := firstNonEmpty(exportPath, cfg.Replay.ExportPath)
		if path != "" {
			exporter = engine.NewExporter(cfg.Replay.SkipUninformative)
			opts = append(opts, engine.WithObserver(exporter))
		}

		orchestrator, err := newOrchestrator(opts...)
		if err != nil {
			return err
		}
		svc, err := newSyncService(orchestrator)
		if err != nil {
			return err
		}

		summary, replayErr := svc.Replay(ctx, start, end)
		fmt.Print(engine.GenerateConsoleReport(orchestrator.Report()))
		fmt.Printf("Days fetched: %d, games processed: %d, skipped: %d\n",
			summary.Days, summary.Processed, summary.Skipped())

		if exporter != nil {
			format := firstNonEmpty(exportFormat, cfg.Replay.ExportFormat)
			if err := exporter.ExportToFile(path, format); err != nil {
				return errors.Join(replayErr, err)
			}
			fmt.Printf("Exported %d rows to %s (%d uninformative skipped)\n",
				len(exporter.Rows()), path, exporter.Skipped())
		}
		return replayErr
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Process the finished games of one day",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -1)
		if syncDate != "" {
			var err error
			if day, err = config.ParseDate(syncDate); err != nil {
				return err
			}
		}

		orchestrator, err := newOrchestrator()
		if err != nil {
			return err
		}
		svc, err := newSyncService(orchestrator)
		if err != nil {
			return err
		}

		summary, err := svc.SyncDay(cmd.Context(), day)
		if err != nil {
			return err
		}
		fmt.Printf("%s: processed %d games, skipped %d, registered %d competitors\n",
			day.Format(time.DateOnly), summary.Processed, summary.Skipped(), summary.Registered)
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict AWAY HOME",
	Short: "Show every model's prediction for a matchup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		away, err := repos.Competitor.GetByAbbrev(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		home, err := repos.Competitor.GetByAbbrev(ctx, strings.ToUpper(args[1]))
		if err != nil {
			return err
		}
		if away.ID == home.ID {
			return fmt.Errorf("a competitor cannot play itself")
		}

		orchestrator, err := newOrchestrator()
		if err != nil {
			return err
		}
		preds, err := orchestrator.Predict(ctx, away.ID, home.ID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "MODEL\t%s\t%s\tPICK\t%s ODDS\t%s ODDS\n", away.Abbrev, home.Abbrev, away.Abbrev, home.Abbrev)
		for i, name := range orchestrator.ModelNames() {
			p := preds[i]
			fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%s\t%s\t%s\n", name, p.ExpAway, p.ExpHome,
				pick(p, away.Abbrev, home.Abbrev), models.FairOdds(p.ExpAway), models.FairOdds(p.ExpHome))
		}
		return w.Flush()
	},
}

func pick(p models.Prediction, away, home string) string {
	switch p.Outcome {
	case models.OutcomeWin:
		return away
	case models.OutcomeLoss:
		return home
	default:
		return "draw"
	}
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "List competitors by rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		competitors, err := repos.Competitor.List(cmd.Context())
		if err != nil {
			return err
		}

		entries := api.RankCompetitors(competitors, ratingsAsc)
		if ratingsLimit > 0 && len(entries) > ratingsLimit {
			entries = entries[:ratingsLimit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tTEAM\tMMR\tMEAN\tUNCERTAINTY\tNAME")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%d\t%.2f\t%.2f\t%s\n", e.Rank, e.Abbrev, e.MMR, e.Mean, e.Uncertainty, e.Name)
		}
		return w.Flush()
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return every competitor to the prior and clear all history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := repos.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("All ratings, head-to-head records and windows reset")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports and the live feed, running the daily sync if scheduled",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hub := feed.NewHub(cfg.Server.AllowedOrigins, logger)
		orchestrator, err := newOrchestrator(engine.WithObserver(hub))
		if err != nil {
			return err
		}
		svc, err := newSyncService(orchestrator)
		if err != nil {
			return err
		}

		checker := health.NewChecker(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Logger:      logger,
			Store:       repos,
		})
		server, err := api.NewServer(api.Config{
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
		}, orchestrator, repos, logger,
			api.WithHealth(checker),
			api.WithFeed(http.HandlerFunc(hub.ServeWS)),
			api.WithSyncStatus(svc),
		)
		if err != nil {
			return err
		}

		if cfg.Schedule.Enabled {
			sched := scheduler.NewScheduler(svc, logger)
			if err := sched.ScheduleDailySync(cfg.Schedule.DailySync); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer func() {
				if err := sched.Stop(); err != nil {
					logger.WithError(err).Warn("Scheduler did not stop cleanly")
				}
			}()
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return server.Start(gctx)
		})

		checker.SetReady(true)
		return g.Wait()
	},
}

func replayRange() (time.Time, time.Time, error) {
	cfg.Replay.StartDate = firstNonEmpty(replayStart, cfg.Replay.StartDate)
	cfg.Replay.EndDate = firstNonEmpty(replayEnd, cfg.Replay.EndDate)
	if cfg.Replay.StartDate == "" || cfg.Replay.EndDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("replay needs --start and --end or replay.start_date and replay.end_date")
	}
	return cfg.ReplayRange()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
