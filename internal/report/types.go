package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// Reporter writes a finished report in one output format.
type Reporter interface {
	Generate(data Data) error
}

// ReportConfig records the parameters the scan ran with.
type ReportConfig struct {
	Regions               []string `json:"regions"`
	Families              []string `json:"families"`
	AMIMinAgeDays         int      `json:"ami_min_age_days"`
	SnapshotRetentionDays int      `json:"snapshot_retention_days"`
	LookbackDays          int      `json:"lookback_days"`
	LowWatermark          float64  `json:"capacity_low_watermark"`
	HighWatermark         float64  `json:"capacity_high_watermark"`
}

// Summary holds aggregated statistics across the whole report.
type Summary struct {
	TotalFindings     int            `json:"total_findings"`
	TotalMonthlyWaste float64        `json:"total_monthly_waste"`
	ByKind            map[string]int `json:"by_kind"`
	ByRegion          map[string]int `json:"by_region"`
	FailedRegions     []string       `json:"failed_regions,omitempty"`
	PartialRegions    []string       `json:"partial_regions,omitempty"`
	RegionsScanned    int            `json:"regions_scanned"`
}

// Data is the envelope every reporter consumes.
type Data struct {
	Tool        string        `json:"tool"`
	Version     string        `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	Config      ReportConfig  `json:"config"`
	Report      *model.Report `json:"report"`
	Summary     Summary       `json:"summary"`
}

// Summarize computes the aggregate view of a report.
func Summarize(r *model.Report) Summary {
	s := Summary{
		ByKind:         make(map[string]int),
		ByRegion:       make(map[string]int),
		RegionsScanned: len(r.Regions),
	}
	for _, rr := range r.Regions {
		switch rr.Status {
		case model.StatusFailed:
			s.FailedRegions = append(s.FailedRegions, rr.Region)
		case model.StatusPartial:
			s.PartialRegions = append(s.PartialRegions, rr.Region)
		}
		for _, f := range rr.Findings {
			s.TotalFindings++
			s.TotalMonthlyWaste += f.EstimatedMonthlyWaste
			s.ByKind[string(f.Kind)]++
			s.ByRegion[rr.Region]++
		}
	}
	return s
}

// Load reads a previously generated JSON report, the input set for the
// deregister path.
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read report %s: %w", path, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("parse report %s: %w", path, err)
	}
	if data.Report == nil {
		return Data{}, fmt.Errorf("report %s has no region results", path)
	}
	return data, nil
}
