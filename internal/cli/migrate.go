package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mams/internal/app"
	"mams/internal/config"
	"mams/internal/infrastructure/storage/postgres"
	"mams/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema migrations",
	Long: `Apply every embedded migration that has not been recorded yet.

Applied files are verified by checksum; an edited migration aborts the run.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolP("list", "l", false, "List embedded migrations without applying them")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	out := cmd.OutOrStdout()

	if list {
		migrations, err := postgres.Migrations()
		if err != nil {
			return err
		}
		for _, m := range migrations {
			fmt.Fprintf(out, "%s  %s  %s\n", m.Version, m.Checksum[:12], m.Filename)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return errors.New("migrate requires STORE=postgres")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := logger.WithLogger(cmd.Context(), log)

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := postgres.Migrate(ctx, rt.Pool); err != nil {
		return err
	}
	fmt.Fprintln(out, "migrations applied")
	return nil
}
