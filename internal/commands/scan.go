package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yongha-dev/finopsaudit/internal/aws"
	"github.com/yongha-dev/finopsaudit/internal/capacity"
	"github.com/yongha-dev/finopsaudit/internal/correlate"
	"github.com/yongha-dev/finopsaudit/internal/engine"
	"github.com/yongha-dev/finopsaudit/internal/model"
	"github.com/yongha-dev/finopsaudit/internal/report"
)

var scanFlags struct {
	regions               []string
	allRegions            bool
	services              []string
	concurrency           int
	amiMinAgeDays         int
	snapshotRetentionDays int
	lookbackDays          int
	lowWatermark          float64
	highWatermark         float64
	format                string
	outputFile            string
	timeout               time.Duration
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan AWS resources for cost-optimization findings",
	Long: `Scan AWS resources across regions for orphaned snapshots, unattached
volumes, unused AMIs, and mis-provisioned DynamoDB tables. Scanning is
read-only; exit status is non-zero if any region's scan fully failed.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFlags.regions, "regions", nil, "Comma-separated region filter")
	scanCmd.Flags().BoolVar(&scanFlags.allRegions, "all-regions", true, "Scan all enabled regions")
	scanCmd.Flags().StringSliceVar(&scanFlags.services, "services", nil, "Resource families to scan: volumes, snapshots, images, tables (default: all)")
	scanCmd.Flags().IntVar(&scanFlags.concurrency, "concurrency", 0, "Maximum regions scanned in parallel (default: 4)")
	scanCmd.Flags().IntVar(&scanFlags.amiMinAgeDays, "ami-min-age-days", 0, "Minimum AMI age before it can be flagged unused (default: 30)")
	scanCmd.Flags().IntVar(&scanFlags.snapshotRetentionDays, "snapshot-retention-days", 0, "Orphaned snapshots older than this get action=delete (default: 90)")
	scanCmd.Flags().IntVar(&scanFlags.lookbackDays, "lookback-days", 0, "Capacity metric lookback window in days (default: 14)")
	scanCmd.Flags().Float64Var(&scanFlags.lowWatermark, "capacity-low-watermark", 0, "Peak utilization ratio below which a table is overprovisioned (default: 0.2)")
	scanCmd.Flags().Float64Var(&scanFlags.highWatermark, "capacity-high-watermark", 0, "Peak utilization ratio at which a table is underprovisioned (default: 0.8)")
	scanCmd.Flags().StringVar(&scanFlags.format, "format", "text", "Output format: text, json, csv, tsv")
	scanCmd.Flags().StringVarP(&scanFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().DurationVar(&scanFlags.timeout, "timeout", 10*time.Minute, "Scan timeout")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if scanFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scanFlags.timeout)
		defer cancel()
	}

	applyConfigDefaults()

	prof := profile
	if prof == "" {
		prof = cfg.Profile
	}

	client, err := aws.NewClient(ctx, prof, "")
	if err != nil {
		return enhanceError("initialize AWS client", err)
	}

	regions, err := resolveRegions(ctx, client)
	if err != nil {
		return enhanceError("resolve regions", err)
	}

	families, err := parseFamilies(scanFlags.services)
	if err != nil {
		return err
	}
	slog.Info("Scanning regions", "count", len(regions), "regions", regions, "families", families)

	correlateCfg := correlate.Config{
		AMIMinAgeDays:         scanFlags.amiMinAgeDays,
		SnapshotRetentionDays: scanFlags.snapshotRetentionDays,
		Exclude:               cfg.Exclude.ResourceIDSet(),
	}
	capacityCfg := capacity.Config{
		LowWatermark:  scanFlags.lowWatermark,
		HighWatermark: scanFlags.highWatermark,
	}

	scanFn := func(ctx context.Context, region string) (*model.RegionResources, []model.FamilyError) {
		scanner := aws.NewRegionScanner(client.ConfigForRegion(region), region, families, scanFlags.lookbackDays)
		return scanner.Scan(ctx)
	}

	orch := engine.New(scanFn, families, scanFlags.concurrency, correlateCfg, capacityCfg)
	rep := orch.Run(ctx, regions)

	data := report.Data{
		Tool:        "finopsaudit",
		Version:     version,
		GeneratedAt: rep.GeneratedAt,
		Config: report.ReportConfig{
			Regions:               regions,
			Families:              familyNames(families),
			AMIMinAgeDays:         scanFlags.amiMinAgeDays,
			SnapshotRetentionDays: scanFlags.snapshotRetentionDays,
			LookbackDays:          scanFlags.lookbackDays,
			LowWatermark:          scanFlags.lowWatermark,
			HighWatermark:         scanFlags.highWatermark,
		},
		Report:  rep,
		Summary: report.Summarize(rep),
	}

	reporter, err := selectReporter(scanFlags.format, scanFlags.outputFile)
	if err != nil {
		return err
	}
	if err := reporter.Generate(data); err != nil {
		return err
	}

	if failed := rep.FailedRegions(); len(failed) > 0 {
		return fmt.Errorf("scan fully failed in %d region(s): %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

func resolveRegions(ctx context.Context, client *aws.Client) ([]string, error) {
	if len(scanFlags.regions) > 0 {
		return scanFlags.regions, nil
	}

	if len(cfg.Regions) > 0 {
		return cfg.Regions, nil
	}

	if scanFlags.allRegions {
		return client.ListEnabledRegions(ctx)
	}

	region := client.Config().Region
	if region == "" {
		return nil, fmt.Errorf("no region specified; use --regions, --all-regions, or set AWS_REGION")
	}
	return []string{region}, nil
}

// applyConfigDefaults fills unset flags from the config file, then from
// built-in defaults. The policy constants are deliberately configuration,
// not hard-coded.
func applyConfigDefaults() {
	if scanFlags.format == "text" && cfg.Format != "" {
		scanFlags.format = cfg.Format
	}
	if len(scanFlags.services) == 0 && len(cfg.Services) > 0 {
		scanFlags.services = cfg.Services
	}
	if scanFlags.concurrency == 0 && cfg.Concurrency > 0 {
		scanFlags.concurrency = cfg.Concurrency
	}
	if scanFlags.amiMinAgeDays == 0 && cfg.AMIMinAgeDays > 0 {
		scanFlags.amiMinAgeDays = cfg.AMIMinAgeDays
	}
	if scanFlags.snapshotRetentionDays == 0 && cfg.SnapshotRetentionDays > 0 {
		scanFlags.snapshotRetentionDays = cfg.SnapshotRetentionDays
	}
	if scanFlags.lookbackDays == 0 && cfg.LookbackDays > 0 {
		scanFlags.lookbackDays = cfg.LookbackDays
	}
	if scanFlags.lowWatermark == 0 && cfg.LowWatermark > 0 {
		scanFlags.lowWatermark = cfg.LowWatermark
	}
	if scanFlags.highWatermark == 0 && cfg.HighWatermark > 0 {
		scanFlags.highWatermark = cfg.HighWatermark
	}

	if scanFlags.amiMinAgeDays == 0 {
		scanFlags.amiMinAgeDays = 30
	}
	if scanFlags.snapshotRetentionDays == 0 {
		scanFlags.snapshotRetentionDays = 90
	}
	if scanFlags.lookbackDays == 0 {
		scanFlags.lookbackDays = 14
	}
	if scanFlags.lowWatermark == 0 {
		scanFlags.lowWatermark = 0.2
	}
	if scanFlags.highWatermark == 0 {
		scanFlags.highWatermark = 0.8
	}
}

func parseFamilies(services []string) ([]model.Family, error) {
	if len(services) == 0 {
		return model.AllFamilies(), nil
	}

	valid := make(map[model.Family]bool)
	for _, f := range model.AllFamilies() {
		valid[f] = true
	}

	var families []model.Family
	for _, s := range services {
		f := model.Family(strings.ToLower(strings.TrimSpace(s)))
		if !valid[f] {
			return nil, fmt.Errorf("unknown service %q (use volumes, snapshots, images, tables)", s)
		}
		families = append(families, f)
	}
	return families, nil
}

func familyNames(families []model.Family) []string {
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, string(f))
	}
	return names
}

func selectReporter(format, outputFile string) (report.Reporter, error) {
	w := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, fmt.Errorf("create output file: %w", err)
		}
		w = f
	}

	switch format {
	case "json":
		return &report.JSONReporter{Writer: w}, nil
	case "text":
		return &report.TextReporter{Writer: w}, nil
	case "csv":
		return &report.CSVReporter{Writer: w}, nil
	case "tsv":
		return &report.CSVReporter{Writer: w, Comma: '\t'}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use text, json, csv, or tsv)", format)
	}
}
