package commands

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/spf13/cobra"

	"github.com/yongha-dev/finopsaudit/internal/aws"
	"github.com/yongha-dev/finopsaudit/internal/engine"
	"github.com/yongha-dev/finopsaudit/internal/report"
)

var deregisterFlags struct {
	reportFile      string
	images          []string
	allUnused       bool
	deleteSnapshots bool
	confirm         bool
}

var deregisterCmd = &cobra.Command{
	Use:   "deregister",
	Short: "Deregister AMIs previously classified as unused",
	Long: `Deregister AMIs from a prior scan report. Only images that appear in an
unused-ami finding are accepted; anything else is rejected without
contacting AWS. Backing snapshots are kept unless --delete-snapshots is
explicitly set.`,
	RunE: runDeregister,
}

func init() {
	deregisterCmd.Flags().StringVar(&deregisterFlags.reportFile, "report", "", "Path to a JSON scan report (required)")
	deregisterCmd.Flags().StringSliceVar(&deregisterFlags.images, "images", nil, "AMI ids to deregister")
	deregisterCmd.Flags().BoolVar(&deregisterFlags.allUnused, "all-unused", false, "Deregister every unused AMI in the report")
	deregisterCmd.Flags().BoolVar(&deregisterFlags.deleteSnapshots, "delete-snapshots", false, "Also delete the snapshots backing each deregistered AMI")
	deregisterCmd.Flags().BoolVar(&deregisterFlags.confirm, "confirm", false, "Actually delete; without this flag the command only lists what would happen")
	_ = deregisterCmd.MarkFlagRequired("report")
}

func runDeregister(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	data, err := report.Load(deregisterFlags.reportFile)
	if err != nil {
		return err
	}

	ids := deregisterFlags.images
	if deregisterFlags.allUnused {
		for id := range data.Report.UnusedAMIs() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("nothing to deregister; pass --images or --all-unused")
	}

	if !deregisterFlags.confirm {
		allowed := data.Report.UnusedAMIs()
		for _, id := range ids {
			if region, ok := allowed[id]; ok {
				fmt.Printf("would deregister %s (%s)\n", id, region)
			} else {
				fmt.Printf("would reject %s: not in any unused-ami finding\n", id)
			}
		}
		fmt.Println("\nRe-run with --confirm to delete.")
		return nil
	}

	prof := profile
	if prof == "" {
		prof = cfg.Profile
	}
	client, err := aws.NewClient(ctx, prof, "")
	if err != nil {
		return enhanceError("initialize AWS client", err)
	}

	deleter := engine.NewDeleter(data.Report, func(region string) engine.ImageDeleteAPI {
		return ec2.NewFromConfig(client.ConfigForRegion(region))
	})

	results := deleter.Delete(ctx, ids, deregisterFlags.deleteSnapshots)

	var failures int
	for _, res := range results {
		switch {
		case res.Deleted:
			fmt.Printf("deregistered %s (%s)\n", res.ImageID, res.Region)
			for _, snap := range res.DeletedSnapshots {
				fmt.Printf("  deleted snapshot %s\n", snap)
			}
			for _, e := range res.SnapshotErrors {
				failures++
				fmt.Printf("  snapshot error: %s\n", e)
			}
		default:
			failures++
			fmt.Printf("failed %s: %s\n", res.ImageID, res.Error)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d deletion(s) failed", failures)
	}
	return nil
}
