package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// setup migrates on open.
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		log.Info().Str("driver", a.cfg.Database.Driver).Msg("database is up to date")
		return nil
	},
}
