// Package correlate classifies one region's normalized resources into
// optimization findings. It never touches the network: the scanner has
// already fetched a single consistent point-in-time view, and every
// classification here is pure set arithmetic over it.
package correlate

import (
	"fmt"
	"strings"
	"time"

	"github.com/yongha-dev/finopsaudit/internal/model"
	"github.com/yongha-dev/finopsaudit/internal/pricing"
)

// Config holds the correlation policy knobs.
type Config struct {
	// AMIMinAgeDays protects freshly built images from being flagged
	// unused before anything has had a chance to launch from them.
	AMIMinAgeDays int
	// SnapshotRetentionDays separates "review" from "delete" on orphaned
	// snapshots: younger orphans may still be covered by retention policy.
	SnapshotRetentionDays int
	// Families limits which finding kinds are emitted. Empty means all.
	Families []model.Family
	// Exclude lists resource ids that are never flagged.
	Exclude map[string]bool
	// Now fixes the classification instant; zero means current time.
	Now time.Time
}

func (c Config) now() time.Time {
	if c.Now.IsZero() {
		return time.Now().UTC()
	}
	return c.Now
}

func (c Config) wants(f model.Family) bool {
	if len(c.Families) == 0 {
		return true
	}
	for _, want := range c.Families {
		if want == f {
			return true
		}
	}
	return false
}

// Findings classifies the region's resources. Output is ordered by
// (kind rank, resource id) and is byte-identical across runs over
// identical input.
func Findings(res *model.RegionResources, cfg Config) []model.Finding {
	var findings []model.Finding

	if cfg.wants(model.FamilyVolumes) {
		findings = append(findings, volumeFindings(res, cfg)...)
	}
	if cfg.wants(model.FamilySnapshots) {
		findings = append(findings, snapshotFindings(res, cfg)...)
	}
	if cfg.wants(model.FamilyImages) {
		findings = append(findings, imageFindings(res, cfg)...)
	}

	model.SortFindings(findings)
	return findings
}

// volumeFindings flags volumes sitting in "available" state. A volume
// with any attachment is never flagged, whatever its reported state.
func volumeFindings(res *model.RegionResources, cfg Config) []model.Finding {
	var findings []model.Finding
	for _, vol := range res.Volumes {
		if cfg.Exclude[vol.ID] {
			continue
		}
		if len(vol.AttachedTo) > 0 || vol.State != "available" {
			continue
		}

		findings = append(findings, model.Finding{
			Kind:                  model.KindOrphanedVolume,
			ResourceID:            vol.ID,
			ResourceName:          vol.Name,
			Region:                res.Region,
			Message:               fmt.Sprintf("Volume unattached, %s %d GiB", vol.Type, vol.SizeGiB),
			Action:                model.ActionReview,
			EstimatedMonthlyWaste: pricing.MonthlyVolumeCost(vol.Type, int(vol.SizeGiB), res.Region),
			Evidence: map[string]any{
				"state":       vol.State,
				"volume_type": vol.Type,
				"size_gib":    vol.SizeGiB,
			},
		})
	}
	return findings
}

// snapshotFindings flags snapshots whose source volume id does not
// resolve in the region's current volume set. An empty source id counts
// as unresolvable; a malformed one additionally records an integrity
// warning on the finding rather than failing the scan.
func snapshotFindings(res *model.RegionResources, cfg Config) []model.Finding {
	volumeSet := make(map[string]bool, len(res.Volumes))
	for _, vol := range res.Volumes {
		volumeSet[vol.ID] = true
	}

	now := cfg.now()
	var findings []model.Finding
	for _, snap := range res.Snapshots {
		if cfg.Exclude[snap.ID] {
			continue
		}
		if snap.VolumeID != "" && volumeSet[snap.VolumeID] {
			continue
		}

		ageDays := int(now.Sub(snap.Started).Hours() / 24)
		action := model.ActionReview
		if cfg.SnapshotRetentionDays > 0 && ageDays >= cfg.SnapshotRetentionDays {
			action = model.ActionDelete
		}

		f := model.Finding{
			Kind:                  model.KindOrphanedSnapshot,
			ResourceID:            snap.ID,
			ResourceName:          snap.Name,
			Region:                res.Region,
			Message:               fmt.Sprintf("Source volume %s no longer exists, snapshot %d days old", orNone(snap.VolumeID), ageDays),
			Action:                action,
			EstimatedMonthlyWaste: pricing.MonthlySnapshotCost(int(snap.SizeGiB), res.Region),
			Evidence: map[string]any{
				"volume_id": snap.VolumeID,
				"age_days":  ageDays,
				"size_gib":  snap.SizeGiB,
			},
		}
		if snap.VolumeID != "" && !strings.HasPrefix(snap.VolumeID, "vol-") {
			f.Warnings = append(f.Warnings,
				fmt.Sprintf("source volume id %q has unexpected form", snap.VolumeID))
		}
		findings = append(findings, f)
	}
	return findings
}

// imageFindings flags AMIs absent from the launch-reference union and
// older than the minimum age. An AMI referenced anywhere is never
// flagged, regardless of age.
func imageFindings(res *model.RegionResources, cfg Config) []model.Finding {
	referenced := make(map[string][]model.LaunchRef)
	for _, ref := range res.LaunchRefs {
		referenced[ref.ImageID] = append(referenced[ref.ImageID], ref)
	}

	now := cfg.now()
	minAge := time.Duration(cfg.AMIMinAgeDays) * 24 * time.Hour

	var findings []model.Finding
	for _, img := range res.Images {
		if cfg.Exclude[img.ID] {
			continue
		}
		if len(referenced[img.ID]) > 0 {
			continue
		}
		age := now.Sub(img.Created)
		if age < minAge {
			continue
		}

		findings = append(findings, model.Finding{
			Kind:         model.KindUnusedAMI,
			ResourceID:   img.ID,
			ResourceName: img.Name,
			Region:       res.Region,
			Message: fmt.Sprintf("No instance, launch template, launch configuration, or auto-scaling group references this image (%d days old)",
				int(age.Hours()/24)),
			Action: model.ActionReview,
			Evidence: map[string]any{
				"age_days":     int(age.Hours() / 24),
				"snapshot_ids": img.SnapshotIDs,
				"public":       img.Public,
			},
		})
	}
	return findings
}

func orNone(id string) string {
	if id == "" {
		return "(none recorded)"
	}
	return id
}
