package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridwatch/nemsync/internal/ingest"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a single ingestion cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		log, err := initIngestLog(st)
		if err != nil {
			return err
		}

		orch := ingest.NewOrchestrator(ingest.Sources(cfg.Portal.BaseURL), initFetcher(), st, log,
			ingest.OrchestratorOptions{MaxConcurrent: cfg.Ingest.MaxConcurrent})

		summary := orch.RunCycle(ctx)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return eris.Wrap(err, "encode cycle summary")
		}

		if failed := summary.Failed(); len(failed) > 0 {
			return eris.Errorf("%d source(s) failed: %v", len(failed), failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cycleCmd)
}
