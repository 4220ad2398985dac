package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// VolumeAPI is the minimal interface for EBS volume operations.
type VolumeAPI interface {
	DescribeVolumes(ctx context.Context, input *ec2.DescribeVolumesInput, opts ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
}

// fetchVolumes lists every EBS volume in the region. The full set is
// needed, not just "available" ones: snapshot orphan detection tests
// membership against it.
func fetchVolumes(ctx context.Context, client VolumeAPI) ([]model.EbsVolume, error) {
	var volumes []model.EbsVolume
	paginator := ec2.NewDescribeVolumesPaginator(client, &ec2.DescribeVolumesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list EBS volumes: %w", err)
		}
		for _, vol := range page.Volumes {
			volumes = append(volumes, normalizeVolume(vol))
		}
	}
	return volumes, nil
}

func normalizeVolume(vol ec2types.Volume) model.EbsVolume {
	v := model.EbsVolume{
		ID:      deref(vol.VolumeId),
		Name:    nameTag(vol.Tags),
		Type:    string(vol.VolumeType),
		SizeGiB: derefInt32(vol.Size),
		State:   string(vol.State),
	}
	if vol.CreateTime != nil {
		v.Created = *vol.CreateTime
	}
	for _, att := range vol.Attachments {
		if att.InstanceId != nil {
			v.AttachedTo = append(v.AttachedTo, *att.InstanceId)
		}
	}
	return v
}

func nameTag(tags []ec2types.Tag) string {
	for _, tag := range tags {
		if deref(tag.Key) == "Name" {
			return deref(tag.Value)
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
