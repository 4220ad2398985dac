package model

import (
	"sort"
	"time"
)

// FindingKind identifies the optimization opportunity detected.
type FindingKind string

const (
	KindOrphanedVolume        FindingKind = "orphaned-volume"
	KindOrphanedSnapshot      FindingKind = "orphaned-snapshot"
	KindUnusedAMI             FindingKind = "unused-ami"
	KindOverprovisionedTable  FindingKind = "overprovisioned-table"
	KindUnderprovisionedTable FindingKind = "underprovisioned-table"
)

// kindRank fixes the report ordering of finding kinds. Volumes sort before
// snapshots so storage findings lead with the cheapest-to-act-on items.
var kindRank = map[FindingKind]int{
	KindOrphanedVolume:        0,
	KindOrphanedSnapshot:      1,
	KindUnusedAMI:             2,
	KindOverprovisionedTable:  3,
	KindUnderprovisionedTable: 4,
}

// Action is the recommended operator response to a finding.
type Action string

const (
	ActionNone   Action = "none"
	ActionReview Action = "review"
	ActionDelete Action = "delete"
)

// Finding is a single optimization opportunity for one resource.
type Finding struct {
	Kind                  FindingKind    `json:"kind"`
	ResourceID            string         `json:"resource_id"`
	ResourceName          string         `json:"resource_name,omitempty"`
	Region                string         `json:"region"`
	Message               string         `json:"message"`
	Action                Action         `json:"action"`
	EstimatedMonthlyWaste float64        `json:"estimated_monthly_waste"`
	Evidence              map[string]any `json:"evidence,omitempty"`
	Warnings              []string       `json:"warnings,omitempty"`
}

// SortFindings orders findings by (kind rank, resource id) so reports are
// stable and diffable across runs over identical input.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := kindRank[findings[i].Kind], kindRank[findings[j].Kind]
		if ri != rj {
			return ri < rj
		}
		return findings[i].ResourceID < findings[j].ResourceID
	})
}

// Status describes the outcome of one region's scan.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// FamilyError records a resource-family failure within a region.
type FamilyError struct {
	Family  Family `json:"family"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// RegionResult is the terminal outcome of one region task.
type RegionResult struct {
	Region   string        `json:"region"`
	Status   Status        `json:"status"`
	Findings []Finding     `json:"findings"`
	Errors   []FamilyError `json:"errors,omitempty"`
}

// Report is the merged cross-region outcome, ordered by requested region.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Regions     []RegionResult `json:"regions"`
}

// FailedRegions returns the ids of regions whose scan fully failed.
func (r *Report) FailedRegions() []string {
	var failed []string
	for _, rr := range r.Regions {
		if rr.Status == StatusFailed {
			failed = append(failed, rr.Region)
		}
	}
	return failed
}

// UnusedAMIs maps every unused-ami finding's image id to its region.
// The deregister path uses this as its only legitimate input set.
func (r *Report) UnusedAMIs() map[string]string {
	amis := make(map[string]string)
	for _, rr := range r.Regions {
		for _, f := range rr.Findings {
			if f.Kind == KindUnusedAMI {
				amis[f.ResourceID] = rr.Region
			}
		}
	}
	return amis
}
