package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInitDBCmd creates the schema. Opening the store already migrates, so
// the command only reports where the database lives.
func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if err := app.Store.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", app.Cfg.DBPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Uploads under %s\n", app.Cfg.UploadDir)
			return nil
		},
	}
}
