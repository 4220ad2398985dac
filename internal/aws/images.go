package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// ImageAPI is the minimal interface for AMI and launch-reference operations.
type ImageAPI interface {
	DescribeImages(ctx context.Context, input *ec2.DescribeImagesInput, opts ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DescribeInstances(ctx context.Context, input *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeLaunchTemplates(ctx context.Context, input *ec2.DescribeLaunchTemplatesInput, opts ...func(*ec2.Options)) (*ec2.DescribeLaunchTemplatesOutput, error)
	DescribeLaunchTemplateVersions(ctx context.Context, input *ec2.DescribeLaunchTemplateVersionsInput, opts ...func(*ec2.Options)) (*ec2.DescribeLaunchTemplateVersionsOutput, error)
}

// fetchImages lists all self-owned AMIs in the region.
func fetchImages(ctx context.Context, client ImageAPI) ([]model.Image, error) {
	out, err := client.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Owners: []string{"self"},
	})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	images := make([]model.Image, 0, len(out.Images))
	for _, img := range out.Images {
		images = append(images, normalizeImage(img))
	}
	return images, nil
}

func normalizeImage(img ec2types.Image) model.Image {
	m := model.Image{
		ID:     deref(img.ImageId),
		Name:   deref(img.Name),
		Public: img.Public != nil && *img.Public,
	}
	if t := parseImageTime(deref(img.CreationDate)); !t.IsZero() {
		m.Created = t
	}
	for _, mapping := range img.BlockDeviceMappings {
		if mapping.Ebs != nil && mapping.Ebs.SnapshotId != nil {
			m.SnapshotIDs = append(m.SnapshotIDs, *mapping.Ebs.SnapshotId)
		}
	}
	return m
}

// fetchLaunchRefs builds the launch-source reference set for the region:
// every image id named by a running instance, a launch template version,
// a launch configuration, or an auto-scaling group's launch template.
// One consistent point-in-time view replaces per-AMI usage queries.
func fetchLaunchRefs(ctx context.Context, client ImageAPI, asgClient AutoScalingAPI) ([]model.LaunchRef, error) {
	var refs []model.LaunchRef

	instanceRefs, err := instanceLaunchRefs(ctx, client)
	if err != nil {
		return nil, err
	}
	refs = append(refs, instanceRefs...)

	templateRefs, err := launchTemplateRefs(ctx, client)
	if err != nil {
		return nil, err
	}
	refs = append(refs, templateRefs...)

	asgRefs, err := autoScalingLaunchRefs(ctx, client, asgClient)
	if err != nil {
		return nil, err
	}
	refs = append(refs, asgRefs...)

	return refs, nil
}

func instanceLaunchRefs(ctx context.Context, client ImageAPI) ([]model.LaunchRef, error) {
	var refs []model.LaunchRef
	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   awssdk.String("instance-state-name"),
				Values: []string{"pending", "running"},
			},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list instances: %w", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				if inst.ImageId == nil {
					continue
				}
				refs = append(refs, model.LaunchRef{
					ImageID:  *inst.ImageId,
					Source:   model.RefInstance,
					SourceID: deref(inst.InstanceId),
				})
			}
		}
	}
	return refs, nil
}

func launchTemplateRefs(ctx context.Context, client ImageAPI) ([]model.LaunchRef, error) {
	var refs []model.LaunchRef
	paginator := ec2.NewDescribeLaunchTemplatesPaginator(client, &ec2.DescribeLaunchTemplatesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list launch templates: %w", err)
		}
		for _, lt := range page.LaunchTemplates {
			versions, err := client.DescribeLaunchTemplateVersions(ctx, &ec2.DescribeLaunchTemplateVersionsInput{
				LaunchTemplateId: lt.LaunchTemplateId,
			})
			if err != nil {
				return nil, fmt.Errorf("list launch template versions for %s: %w", deref(lt.LaunchTemplateId), err)
			}
			for _, v := range versions.LaunchTemplateVersions {
				if v.LaunchTemplateData == nil || v.LaunchTemplateData.ImageId == nil {
					continue
				}
				refs = append(refs, model.LaunchRef{
					ImageID:  *v.LaunchTemplateData.ImageId,
					Source:   model.RefLaunchTemplate,
					SourceID: deref(lt.LaunchTemplateId),
				})
			}
		}
	}
	return refs, nil
}

// resolveTemplateImage looks up the image id of a specific launch template
// version ($Latest, $Default, or a number).
func resolveTemplateImage(ctx context.Context, client ImageAPI, templateID, version string) (string, error) {
	out, err := client.DescribeLaunchTemplateVersions(ctx, &ec2.DescribeLaunchTemplateVersionsInput{
		LaunchTemplateId: awssdk.String(templateID),
		Versions:         []string{version},
	})
	if err != nil {
		return "", err
	}
	for _, v := range out.LaunchTemplateVersions {
		if v.LaunchTemplateData != nil && v.LaunchTemplateData.ImageId != nil {
			return *v.LaunchTemplateData.ImageId, nil
		}
	}
	return "", nil
}

// parseImageTime parses the RFC3339 CreationDate string on AMI records.
func parseImageTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
