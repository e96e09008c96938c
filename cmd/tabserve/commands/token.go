package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opst/tabserve/pkg/auth"
)

var (
	tokenTTL   time.Duration
	tokenTasks []string
)

var tokenCmd = &cobra.Command{
	Use:   "token SUBJECT",
	Short: "Issue a bearer token for /invocations",
	Long: `Issue a bearer token for /invocations, signed with auth.hmac_key.

With --task, the token is valid only for the tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.HMACKey == "" {
			return errors.New("auth.hmac_key is not configured")
		}
		token, err := auth.Issue(
			[]byte(cfg.Auth.HMACKey), cfg.Auth.Issuer, args[0], tokenTTL, tokenTasks...,
		)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "lifetime of the token")
	tokenCmd.Flags().StringSliceVar(&tokenTasks, "task", nil, "task ids allowed. all if empty")
	rootCmd.AddCommand(tokenCmd)
}
