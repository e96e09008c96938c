package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/opst/tabserve/pkg/artifact"
)

var publishCmd = &cobra.Command{
	Use:   "publish NAME FILE",
	Short: "Store an artifact file into the database as NAME",
	Long: `Store an artifact file into the database (models.postgres_uri) as NAME.

The artifact is verified before stored. NAME replaces the artifact stored already.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Models.PostgresURI == "" {
			return errors.New("models.postgres_uri is not configured")
		}
		body, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		store, err := artifact.ConnectPostgres(cmd.Context(), cfg.Models.PostgresURI)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Put(cmd.Context(), args[0], body); err != nil {
			return err
		}
		cmd.Printf("published %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
