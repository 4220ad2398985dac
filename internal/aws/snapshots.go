package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// SnapshotAPI is the minimal interface for EBS snapshot operations.
type SnapshotAPI interface {
	DescribeSnapshots(ctx context.Context, input *ec2.DescribeSnapshotsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
}

// fetchSnapshots lists all self-owned snapshots in the region.
func fetchSnapshots(ctx context.Context, client SnapshotAPI) ([]model.EbsSnapshot, error) {
	var snapshots []model.EbsSnapshot
	paginator := ec2.NewDescribeSnapshotsPaginator(client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, snap := range page.Snapshots {
			snapshots = append(snapshots, normalizeSnapshot(snap))
		}
	}
	return snapshots, nil
}

func normalizeSnapshot(snap ec2types.Snapshot) model.EbsSnapshot {
	s := model.EbsSnapshot{
		ID:       deref(snap.SnapshotId),
		Name:     snapshotName(snap),
		VolumeID: deref(snap.VolumeId),
		SizeGiB:  derefInt32(snap.VolumeSize),
	}
	if snap.StartTime != nil {
		s.Started = *snap.StartTime
	}
	return s
}

func snapshotName(snap ec2types.Snapshot) string {
	if name := nameTag(snap.Tags); name != "" {
		return name
	}
	return deref(snap.Description)
}
