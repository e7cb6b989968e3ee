package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/logblock/internal/config"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/output"
	"github.com/telhawk-systems/logblock/internal/repository"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return errors.New("migrations require a postgres repository (type=postgres)")
			}

			conn := cfg.Connection()
			output.Info("Applying migrations to %s:%d/%s", conn.Host, conn.Port, conn.Database)

			version, dirty, err := repository.Migrate(conn.ConnString())
			if err != nil {
				return &models.PersistenceError{Op: "migration", Err: err}
			}

			output.Success("Schema at version %d (dirty=%v)", version, dirty)
			return nil
		},
	}
}
