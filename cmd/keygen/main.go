package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/kitchen-planner-go/pkg/auth"
	"github.com/arnavshah/kitchen-planner-go/pkg/config"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env from project root
	config.LoadDotEnv()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "keygen",
		Short:        "Issue kitchen planner credentials",
		SilenceUsage: true,
	}
	root.AddCommand(newKeyCmd(), newHashCmd())
	return root
}

func newKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key <cookID>",
		Short: "Print an HMAC API key for a cook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("API_MASTER_SECRET")
			if secret == "" {
				return fmt.Errorf("API_MASTER_SECRET not found in environment or .env")
			}
			key := auth.NewService("", secret).GenerateHMACKey(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print a bcrypt hash for an organizer password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
