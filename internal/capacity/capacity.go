// Package capacity flags DynamoDB tables whose provisioned throughput
// diverges from what the consumption window shows. Pure computation over
// already-fetched samples.
package capacity

import (
	"fmt"
	"math"

	"github.com/yongha-dev/finopsaudit/internal/model"
	"github.com/yongha-dev/finopsaudit/internal/pricing"
)

// Config holds the provisioning watermarks.
type Config struct {
	// LowWatermark: a table whose peak utilization ratio stays below this
	// on every provisioned dimension is overprovisioned.
	LowWatermark float64
	// HighWatermark: a table whose peak utilization ratio reaches this on
	// any dimension is underprovisioned (throttling risk).
	HighWatermark float64
}

// usage is the peak and average utilization ratio of one dimension.
type usage struct {
	peak float64
	avg  float64
}

// Findings analyzes each table in the region. On-demand tables and
// tables with no samples in the window yield no finding: insufficient
// data is neither over- nor under-provisioning.
func Findings(tables []model.DynamoTable, region string, cfg Config) []model.Finding {
	var findings []model.Finding
	for _, table := range tables {
		if f, ok := analyzeTable(table, region, cfg); ok {
			findings = append(findings, f)
		}
	}
	model.SortFindings(findings)
	return findings
}

func analyzeTable(table model.DynamoTable, region string, cfg Config) (model.Finding, bool) {
	if table.OnDemand || len(table.Samples) == 0 {
		return model.Finding{}, false
	}
	if table.ProvisionedRead <= 0 && table.ProvisionedWrite <= 0 {
		return model.Finding{}, false
	}

	read := dimensionUsage(table.Samples, table.ProvisionedRead, func(s model.CapacitySample) float64 { return s.ReadUnits })
	write := dimensionUsage(table.Samples, table.ProvisionedWrite, func(s model.CapacitySample) float64 { return s.WriteUnits })

	evidence := map[string]any{
		"provisioned_read":  table.ProvisionedRead,
		"provisioned_write": table.ProvisionedWrite,
		"samples":           len(table.Samples),
	}
	if table.ProvisionedRead > 0 {
		evidence["read_peak_ratio"] = round(read.peak)
		evidence["read_avg_ratio"] = round(read.avg)
	}
	if table.ProvisionedWrite > 0 {
		evidence["write_peak_ratio"] = round(write.peak)
		evidence["write_avg_ratio"] = round(write.avg)
	}

	// Underprovisioning wins when both watermarks would match: the
	// throttling risk is the more urgent signal.
	if underprovisioned(table, read, write, cfg.HighWatermark) {
		return model.Finding{
			Kind:       model.KindUnderprovisionedTable,
			ResourceID: table.Name,
			Region:     region,
			Message: fmt.Sprintf("Peak utilization %.0f%% read / %.0f%% write over the sample window",
				read.peak*100, write.peak*100),
			Action:   model.ActionReview,
			Evidence: evidence,
		}, true
	}

	if overprovisioned(table, read, write, cfg.LowWatermark) {
		unusedRead := math.Max(0, table.ProvisionedRead-table.ProvisionedRead*read.avg)
		unusedWrite := math.Max(0, table.ProvisionedWrite-table.ProvisionedWrite*write.avg)
		evidence["unused_read_units"] = round(unusedRead)
		evidence["unused_write_units"] = round(unusedWrite)

		return model.Finding{
			Kind:       model.KindOverprovisionedTable,
			ResourceID: table.Name,
			Region:     region,
			Message: fmt.Sprintf("Peak utilization %.0f%% read / %.0f%% write over the sample window",
				read.peak*100, write.peak*100),
			Action:                model.ActionReview,
			EstimatedMonthlyWaste: pricing.MonthlyTableCapacityCost(unusedRead, unusedWrite, region),
			Evidence:              evidence,
		}, true
	}

	return model.Finding{}, false
}

func dimensionUsage(samples []model.CapacitySample, provisioned float64, value func(model.CapacitySample) float64) usage {
	if provisioned <= 0 {
		return usage{}
	}
	var peak, sum float64
	for _, s := range samples {
		ratio := value(s) / provisioned
		if ratio > peak {
			peak = ratio
		}
		sum += ratio
	}
	return usage{peak: peak, avg: sum / float64(len(samples))}
}

func underprovisioned(table model.DynamoTable, read, write usage, high float64) bool {
	if high <= 0 {
		return false
	}
	if table.ProvisionedRead > 0 && read.peak >= high {
		return true
	}
	if table.ProvisionedWrite > 0 && write.peak >= high {
		return true
	}
	return false
}

func overprovisioned(table model.DynamoTable, read, write usage, low float64) bool {
	if low <= 0 {
		return false
	}
	if table.ProvisionedRead > 0 && read.peak >= low {
		return false
	}
	if table.ProvisionedWrite > 0 && write.peak >= low {
		return false
	}
	return true
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
