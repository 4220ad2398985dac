package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yongha-dev/finopsaudit/internal/config"
	"github.com/yongha-dev/finopsaudit/internal/logging"
)

var (
	verbose bool
	profile string
	version string
	commit  string
	date    string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "finopsaudit",
	Short: "finopsaudit — AWS cost-optimization auditor",
	Long: `finopsaudit analyzes AWS account resources across regions to surface
cost-optimization opportunities: orphaned EBS snapshots and volumes, unused
AMIs, and DynamoDB tables whose provisioned capacity diverges from actual
consumption.

Scanning is read-only. Deregistering unused AMIs is a separate, explicit
command that only accepts images from a prior scan report.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(ctx context.Context, v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS profile name")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(deregisterCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
