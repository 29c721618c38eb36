package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridwatch/nemsync/internal/geninfo"
)

var (
	importGenFile    string
	importGenAliases string
)

var importGenCmd = &cobra.Command{
	Use:   "import-generators",
	Short: "Import a generator registration list CSV",
	Long:  "Loads DUID metadata (station, region, fuel, capacity) used to group dispatch output by fuel in the daily metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importGenFile == "" {
			return eris.New("--file is required")
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		_, err = geninfo.ImportFile(ctx, st, importGenFile, importGenAliases)
		return err
	},
}

func init() {
	importGenCmd.Flags().StringVar(&importGenFile, "file", "", "generator list CSV")
	importGenCmd.Flags().StringVar(&importGenAliases, "aliases", "", "fuel/technology alias mapping YAML")
	rootCmd.AddCommand(importGenCmd)
}
