package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridwatch/nemsync/internal/api"
	"github.com/gridwatch/nemsync/internal/ingest"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the query API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := api.Options{}
		if log, err := initIngestLog(st); err == nil {
			opts.IngestLog = log
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := api.NewServer(st, ingest.Sources(cfg.Portal.BaseURL), opts)
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
