package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// ImageDeleteAPI is the minimal interface for AMI deregistration.
type ImageDeleteAPI interface {
	DescribeImages(ctx context.Context, input *ec2.DescribeImagesInput, opts ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DeregisterImage(ctx context.Context, input *ec2.DeregisterImageInput, opts ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error)
	DeleteSnapshot(ctx context.Context, input *ec2.DeleteSnapshotInput, opts ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error)
}

// DeleteResult records the outcome of one AMI deregistration attempt.
type DeleteResult struct {
	ImageID          string   `json:"image_id"`
	Region           string   `json:"region,omitempty"`
	Deleted          bool     `json:"deleted"`
	Error            string   `json:"error,omitempty"`
	DeletedSnapshots []string `json:"deleted_snapshots,omitempty"`
	SnapshotErrors   []string `json:"snapshot_errors,omitempty"`
}

// Deleter deregisters AMIs previously classified as unused. Ids not
// present in the allowed set are rejected without any API contact: prior
// unused-ami findings are the only legitimate input to the destructive
// path.
type Deleter struct {
	// allowed maps an image id to the region its finding came from.
	allowed map[string]string
	// clientFor returns a delete client bound to a region.
	clientFor func(region string) ImageDeleteAPI
}

// NewDeleter builds a deleter gated on the given report's unused-ami
// findings.
func NewDeleter(report *model.Report, clientFor func(region string) ImageDeleteAPI) *Deleter {
	return &Deleter{
		allowed:   report.UnusedAMIs(),
		clientFor: clientFor,
	}
}

// Delete deregisters the given images one at a time, recording a per-id
// outcome. One failure never aborts the rest of the batch. Backing
// snapshots are only deleted when deleteSnapshots is set.
func (d *Deleter) Delete(ctx context.Context, imageIDs []string, deleteSnapshots bool) []DeleteResult {
	results := make([]DeleteResult, 0, len(imageIDs))
	for _, id := range imageIDs {
		results = append(results, d.deleteOne(ctx, id, deleteSnapshots))
	}
	return results
}

func (d *Deleter) deleteOne(ctx context.Context, imageID string, deleteSnapshots bool) DeleteResult {
	region, ok := d.allowed[imageID]
	if !ok {
		return DeleteResult{
			ImageID: imageID,
			Error:   "not present in any unused-ami finding; refusing to delete",
		}
	}

	result := DeleteResult{ImageID: imageID, Region: region}
	client := d.clientFor(region)

	// Snapshot ids come from a fresh describe, not from the report: the
	// image may have changed since the scan.
	var snapshotIDs []string
	if deleteSnapshots {
		out, err := client.DescribeImages(ctx, &ec2.DescribeImagesInput{
			ImageIds: []string{imageID},
		})
		if err != nil {
			result.Error = fmt.Sprintf("describe image: %v", err)
			return result
		}
		for _, img := range out.Images {
			for _, mapping := range img.BlockDeviceMappings {
				if mapping.Ebs != nil && mapping.Ebs.SnapshotId != nil {
					snapshotIDs = append(snapshotIDs, *mapping.Ebs.SnapshotId)
				}
			}
		}
	}

	if _, err := client.DeregisterImage(ctx, &ec2.DeregisterImageInput{
		ImageId: &imageID,
	}); err != nil {
		result.Error = fmt.Sprintf("deregister image: %v", err)
		return result
	}
	result.Deleted = true
	slog.Info("Deregistered image", "image", imageID, "region", region)

	for _, snapID := range snapshotIDs {
		snapID := snapID
		if _, err := client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
			SnapshotId: &snapID,
		}); err != nil {
			result.SnapshotErrors = append(result.SnapshotErrors,
				fmt.Sprintf("%s: %v", snapID, err))
			continue
		}
		result.DeletedSnapshots = append(result.DeletedSnapshots, snapID)
	}

	return result
}
