package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opst/tabserve/pkg/configs/server"
)

var (
	configPath string
	loglevel   string

	// loaded before subcommands run.
	cfg *server.Config
)

var rootCmd = &cobra.Command{
	Use:   "tabserve",
	Short: "tabserve - scoring server for tabular models",
	Long: `tabserve serves trained tabular models over HTTP.

Each request names a task. The task configuration says which model artifact
scores the request, and how many scoring tasks are pooled for it.

Configuration is read from --config file and TABSERVE_* environment variables.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		server.SetDefaults(v)
		if configPath != "" {
			if err := server.ReadFile(v, configPath); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("loglevel") {
			v.Set("loglevel", loglevel)
		}
		c, err := server.Load(v)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to server config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&loglevel, "loglevel", "", "log level. debug|info|warn|error|off")
}

func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the command line. Errors are printed to stderr.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error: ")+err.Error())
	}
	return err
}
