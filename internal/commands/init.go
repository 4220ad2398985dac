package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and IAM policy",
	Long:  `Creates a sample .finopsaudit.yaml config file and an IAM policy JSON file with the read-only permissions scanning needs.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(_ *cobra.Command, _ []string) error {
	if err := writeIfNotExists(".finopsaudit.yaml", sampleConfig, initFlags.force); err != nil {
		return err
	}
	if err := writeIfNotExists("finopsaudit-policy.json", sampleIAMPolicy, initFlags.force); err != nil {
		return err
	}

	fmt.Println("Wrote .finopsaudit.yaml and finopsaudit-policy.json")
	return nil
}

func writeIfNotExists(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

const sampleConfig = `# finopsaudit configuration
# Flags override config values; config values override defaults.

# regions:
#   - us-east-1
#   - eu-west-1

# profile: my-profile

# Resource families to scan (default: all)
# services:
#   - volumes
#   - snapshots
#   - images
#   - tables

concurrency: 4

# Policy thresholds
ami_min_age_days: 30
snapshot_retention_days: 90
lookback_days: 14
capacity_low_watermark: 0.2
capacity_high_watermark: 0.8

format: text
timeout: 10m

# exclude:
#   resource_ids:
#     - vol-0123456789abcdef0
`

const sampleIAMPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "FinopsauditScanReadOnly",
      "Effect": "Allow",
      "Action": [
        "ec2:DescribeRegions",
        "ec2:DescribeVolumes",
        "ec2:DescribeSnapshots",
        "ec2:DescribeImages",
        "ec2:DescribeInstances",
        "ec2:DescribeLaunchTemplates",
        "ec2:DescribeLaunchTemplateVersions",
        "autoscaling:DescribeLaunchConfigurations",
        "autoscaling:DescribeAutoScalingGroups",
        "dynamodb:ListTables",
        "dynamodb:DescribeTable",
        "cloudwatch:GetMetricData"
      ],
      "Resource": "*"
    },
    {
      "Sid": "FinopsauditDeregisterOptIn",
      "Effect": "Allow",
      "Action": [
        "ec2:DeregisterImage",
        "ec2:DeleteSnapshot"
      ],
      "Resource": "*"
    }
  ]
}
`
