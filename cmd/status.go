package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridwatch/nemsync/internal/ingest"
	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored coverage and recent ingest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		out := struct {
			Coverage []*model.Coverage `json:"coverage"`
			Runs     []ingest.LogEntry `json:"recent_runs,omitempty"`
		}{}

		for _, table := range store.Tables {
			cov, err := st.Coverage(ctx, table)
			if err != nil {
				return err
			}
			out.Coverage = append(out.Coverage, cov)
		}

		if log, err := initIngestLog(st); err == nil {
			runs, err := log.Recent(ctx, 20)
			if err != nil {
				return err
			}
			out.Runs = runs
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(out), "encode status")
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
