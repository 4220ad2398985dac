// Package engine runs the multi-region analysis: one bounded task per
// region, each owning its result exclusively until the final merge.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yongha-dev/finopsaudit/internal/capacity"
	"github.com/yongha-dev/finopsaudit/internal/correlate"
	"github.com/yongha-dev/finopsaudit/internal/model"
)

// RegionScanFunc fetches and normalizes one region's resources.
// Implementations collect per-family failures instead of returning them.
type RegionScanFunc func(ctx context.Context, region string) (*model.RegionResources, []model.FamilyError)

// Orchestrator fans scans out across regions and merges the outcomes
// into one report in requested-region order.
type Orchestrator struct {
	scan         RegionScanFunc
	families     []model.Family
	concurrency  int
	correlateCfg correlate.Config
	capacityCfg  capacity.Config
}

// New creates an orchestrator. Concurrency at or below zero falls back
// to 4 simultaneous regions.
func New(scan RegionScanFunc, families []model.Family, concurrency int, correlateCfg correlate.Config, capacityCfg capacity.Config) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 4
	}
	if len(families) == 0 {
		families = model.AllFamilies()
	}
	correlateCfg.Families = families
	return &Orchestrator{
		scan:         scan,
		families:     families,
		concurrency:  concurrency,
		correlateCfg: correlateCfg,
		capacityCfg:  capacityCfg,
	}
}

// Run scans every region and assembles the report. A region's total
// failure never cancels its siblings; cancellation of ctx makes
// in-flight regions return promptly with whatever partial state they
// have. The returned report preserves the input region order.
func (o *Orchestrator) Run(ctx context.Context, regions []string) *model.Report {
	results := make([]model.RegionResult, len(regions))

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			slog.Info("Scanning region", "region", region)
			results[i] = o.scanRegion(ctx, region)
			return nil
		})
	}

	// Tasks never return errors; failures live inside their result slot.
	_ = g.Wait()

	return &model.Report{
		GeneratedAt: time.Now().UTC(),
		Regions:     results,
	}
}

// scanRegion runs scan, correlation, and capacity analysis for one
// region. The result is owned by this task alone until returned.
func (o *Orchestrator) scanRegion(ctx context.Context, region string) model.RegionResult {
	res, familyErrs := o.scan(ctx, region)

	result := model.RegionResult{
		Region: region,
		Status: regionStatus(o.families, familyErrs),
		Errors: familyErrs,
	}
	if result.Status == model.StatusFailed {
		slog.Warn("Region scan failed", "region", region, "errors", len(familyErrs))
		result.Findings = []model.Finding{}
		return result
	}

	findings := correlate.Findings(res, o.correlateCfg)
	findings = append(findings, capacity.Findings(res.Tables, region, o.capacityCfg)...)
	model.SortFindings(findings)
	if findings == nil {
		findings = []model.Finding{}
	}
	result.Findings = findings
	return result
}

// regionStatus derives the tagged outcome from how many requested
// families failed.
func regionStatus(families []model.Family, errs []model.FamilyError) model.Status {
	if len(errs) == 0 {
		return model.StatusOK
	}

	failed := make(map[model.Family]bool, len(errs))
	for _, e := range errs {
		failed[e.Family] = true
	}
	for _, f := range families {
		if !failed[f] {
			return model.StatusPartial
		}
	}
	return model.StatusFailed
}
