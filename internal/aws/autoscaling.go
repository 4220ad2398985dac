package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/autoscaling"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// AutoScalingAPI is the minimal interface for auto-scaling operations.
type AutoScalingAPI interface {
	DescribeLaunchConfigurations(ctx context.Context, input *autoscaling.DescribeLaunchConfigurationsInput, opts ...func(*autoscaling.Options)) (*autoscaling.DescribeLaunchConfigurationsOutput, error)
	DescribeAutoScalingGroups(ctx context.Context, input *autoscaling.DescribeAutoScalingGroupsInput, opts ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error)
}

// autoScalingLaunchRefs collects image references from launch
// configurations and from auto-scaling groups whose desired launch
// template must be resolved back to an image id.
func autoScalingLaunchRefs(ctx context.Context, ec2Client ImageAPI, asgClient AutoScalingAPI) ([]model.LaunchRef, error) {
	var refs []model.LaunchRef

	lcPaginator := autoscaling.NewDescribeLaunchConfigurationsPaginator(asgClient, &autoscaling.DescribeLaunchConfigurationsInput{})
	for lcPaginator.HasMorePages() {
		page, err := lcPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list launch configurations: %w", err)
		}
		for _, lc := range page.LaunchConfigurations {
			if lc.ImageId == nil {
				continue
			}
			refs = append(refs, model.LaunchRef{
				ImageID:  *lc.ImageId,
				Source:   model.RefLaunchConfiguration,
				SourceID: deref(lc.LaunchConfigurationName),
			})
		}
	}

	asgPaginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(asgClient, &autoscaling.DescribeAutoScalingGroupsInput{})
	for asgPaginator.HasMorePages() {
		page, err := asgPaginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list auto-scaling groups: %w", err)
		}
		for _, asg := range page.AutoScalingGroups {
			lt := asg.LaunchTemplate
			if lt == nil || lt.LaunchTemplateId == nil {
				continue
			}
			version := deref(lt.Version)
			if version == "" {
				version = "$Default"
			}
			imageID, err := resolveTemplateImage(ctx, ec2Client, *lt.LaunchTemplateId, version)
			if err != nil {
				return nil, fmt.Errorf("resolve launch template %s for ASG %s: %w",
					*lt.LaunchTemplateId, deref(asg.AutoScalingGroupName), err)
			}
			if imageID == "" {
				continue
			}
			refs = append(refs, model.LaunchRef{
				ImageID:  imageID,
				Source:   model.RefAutoScalingGroup,
				SourceID: deref(asg.AutoScalingGroupName),
			})
		}
	}

	return refs, nil
}
