package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gridwatch/nemsync/internal/gaps"
	"github.com/gridwatch/nemsync/internal/ingest"
	"github.com/gridwatch/nemsync/internal/monitoring"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the continuous ingestion loop",
	Long:  "Polls every monitored portal publication on a timer, catching up from each source's cursor, until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		log, err := initIngestLog(st)
		if err != nil {
			return err
		}

		sources := ingest.Sources(cfg.Portal.BaseURL)
		fetch := initFetcher()
		orch := ingest.NewOrchestrator(sources, fetch, st, log, ingest.OrchestratorOptions{
			Interval:      cfg.Ingest.Interval(),
			MaxConcurrent: cfg.Ingest.MaxConcurrent,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return orch.Run(gctx) })
		g.Go(func() error {
			// Catch-up pass over the archives runs once at startup, alongside
			// the live loop. The upserts are idempotent either way.
			b := ingest.NewBackfiller(fetch, st, cfg.Backfill.Delay())
			err := b.FillAll(gctx, ingest.DayFetchers(sources), cfg.Backfill.Lookback())
			if err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
		g.Go(func() error {
			collector := monitoring.NewCollector(st, log, gaps.NewDetector(st), sources)
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			monitoring.NewChecker(collector, alerter, cfg.Monitoring).Run(gctx)
			return nil
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
