package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/claims-service/internal/persistence"
)

var errNoDatabase = errors.New("POSTGRES_DSN is not set")

func (rt *app) migrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := rt.config()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errNoDatabase
			}
			if dir == "" {
				dir = cfg.Postgres.MigrationsDir
			}
			files, err := persistence.MigrationFiles(dir)
			if err != nil {
				return err
			}

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()

			if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), dir, logger); err != nil {
				return err
			}
			fmt.Fprintf(rt.opts.Out, "applied %d migrations from %s\n", len(files), dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")
	return cmd
}
