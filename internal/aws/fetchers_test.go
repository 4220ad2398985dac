package aws

import (
	"context"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	asgtypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

func TestFetchVolumes_Normalization(t *testing.T) {
	created := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	ec2m := &mockEC2{
		volumes: []ec2types.Volume{
			{
				VolumeId:   awssdk.String("vol-1"),
				VolumeType: ec2types.VolumeTypeGp3,
				Size:       awssdk.Int32(100),
				State:      ec2types.VolumeStateInUse,
				CreateTime: &created,
				Tags: []ec2types.Tag{
					{Key: awssdk.String("Name"), Value: awssdk.String("db-data")},
				},
				Attachments: []ec2types.VolumeAttachment{
					{InstanceId: awssdk.String("i-1")},
				},
			},
			{
				VolumeId: awssdk.String("vol-2"),
				State:    ec2types.VolumeStateAvailable,
			},
		},
	}

	volumes, err := fetchVolumes(context.Background(), ec2m)
	if err != nil {
		t.Fatalf("fetchVolumes: %v", err)
	}
	if len(volumes) != 2 {
		t.Fatalf("expected 2 volumes, got %d", len(volumes))
	}

	v := volumes[0]
	if v.ID != "vol-1" || v.Name != "db-data" || v.Type != "gp3" || v.SizeGiB != 100 {
		t.Fatalf("unexpected volume: %+v", v)
	}
	if v.State != "in-use" || len(v.AttachedTo) != 1 || v.AttachedTo[0] != "i-1" {
		t.Fatalf("unexpected attachment state: %+v", v)
	}
	if !v.Created.Equal(created) {
		t.Fatalf("unexpected create time: %v", v.Created)
	}
	if volumes[1].State != "available" || len(volumes[1].AttachedTo) != 0 {
		t.Fatalf("unexpected detached volume: %+v", volumes[1])
	}
}

func TestFetchSnapshots_NameFallsBackToDescription(t *testing.T) {
	started := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ec2m := &mockEC2{
		snapshots: []ec2types.Snapshot{
			{
				SnapshotId:  awssdk.String("snap-tagged"),
				VolumeId:    awssdk.String("vol-1"),
				Description: awssdk.String("nightly backup"),
				StartTime:   &started,
				Tags: []ec2types.Tag{
					{Key: awssdk.String("Name"), Value: awssdk.String("db-backup")},
				},
			},
			{
				SnapshotId:  awssdk.String("snap-plain"),
				VolumeId:    awssdk.String("vol-1"),
				Description: awssdk.String("ad-hoc copy"),
				VolumeSize:  awssdk.Int32(50),
			},
		},
	}

	snapshots, err := fetchSnapshots(context.Background(), ec2m)
	if err != nil {
		t.Fatalf("fetchSnapshots: %v", err)
	}
	if snapshots[0].Name != "db-backup" {
		t.Fatalf("expected Name tag to win, got %q", snapshots[0].Name)
	}
	if snapshots[1].Name != "ad-hoc copy" || snapshots[1].SizeGiB != 50 {
		t.Fatalf("expected description fallback, got %+v", snapshots[1])
	}
}

func TestFetchImages_Normalization(t *testing.T) {
	ec2m := &mockEC2{
		images: []ec2types.Image{
			{
				ImageId:      awssdk.String("ami-1"),
				Name:         awssdk.String("app-build-42"),
				CreationDate: awssdk.String("2026-02-01T10:00:00.000Z"),
				Public:       awssdk.Bool(false),
				BlockDeviceMappings: []ec2types.BlockDeviceMapping{
					{Ebs: &ec2types.EbsBlockDevice{SnapshotId: awssdk.String("snap-root")}},
					{VirtualName: awssdk.String("ephemeral0")},
				},
			},
		},
	}

	images, err := fetchImages(context.Background(), ec2m)
	if err != nil {
		t.Fatalf("fetchImages: %v", err)
	}
	img := images[0]
	if img.ID != "ami-1" || img.Name != "app-build-42" || img.Public {
		t.Fatalf("unexpected image: %+v", img)
	}
	if img.Created.IsZero() {
		t.Fatal("expected creation date parsed")
	}
	if len(img.SnapshotIDs) != 1 || img.SnapshotIDs[0] != "snap-root" {
		t.Fatalf("expected one backing snapshot, got %v", img.SnapshotIDs)
	}
}

func TestFetchLaunchRefs_AllSources(t *testing.T) {
	ec2m := &mockEC2{
		instances: []ec2types.Instance{
			{InstanceId: awssdk.String("i-1"), ImageId: awssdk.String("ami-inst")},
		},
		templates: []ec2types.LaunchTemplate{
			{LaunchTemplateId: awssdk.String("lt-1")},
		},
		versions: map[string][]ec2types.LaunchTemplateVersion{
			"lt-1": {
				{LaunchTemplateData: &ec2types.ResponseLaunchTemplateData{ImageId: awssdk.String("ami-lt")}},
			},
			"lt-asg": {
				{LaunchTemplateData: &ec2types.ResponseLaunchTemplateData{ImageId: awssdk.String("ami-asg")}},
			},
		},
	}
	asg := &mockAutoScaling{
		configs: []asgtypes.LaunchConfiguration{
			{LaunchConfigurationName: awssdk.String("lc-1"), ImageId: awssdk.String("ami-lc")},
		},
		groups: []asgtypes.AutoScalingGroup{
			{
				AutoScalingGroupName: awssdk.String("web"),
				LaunchTemplate: &asgtypes.LaunchTemplateSpecification{
					LaunchTemplateId: awssdk.String("lt-asg"),
					// No version pinned: the default version applies.
				},
			},
		},
	}

	refs, err := fetchLaunchRefs(context.Background(), ec2m, asg)
	if err != nil {
		t.Fatalf("fetchLaunchRefs: %v", err)
	}

	bySource := make(map[model.LaunchRefSource]string)
	for _, ref := range refs {
		bySource[ref.Source] = ref.ImageID
	}

	want := map[model.LaunchRefSource]string{
		model.RefInstance:            "ami-inst",
		model.RefLaunchTemplate:      "ami-lt",
		model.RefLaunchConfiguration: "ami-lc",
		model.RefAutoScalingGroup:    "ami-asg",
	}
	for source, imageID := range want {
		if bySource[source] != imageID {
			t.Fatalf("source %s: expected %s, got %s", source, imageID, bySource[source])
		}
	}
}

func TestNormalizeTable_ProvisionedThroughput(t *testing.T) {
	tbl := normalizeTable("orders", &ddbtypes.TableDescription{
		ProvisionedThroughput: &ddbtypes.ProvisionedThroughputDescription{
			ReadCapacityUnits:  awssdk.Int64(100),
			WriteCapacityUnits: awssdk.Int64(50),
		},
	})
	if tbl.OnDemand {
		t.Fatal("provisioned table classified as on-demand")
	}
	if tbl.ProvisionedRead != 100 || tbl.ProvisionedWrite != 50 {
		t.Fatalf("unexpected throughput: %+v", tbl)
	}
}

func TestNormalizeTable_OnDemand(t *testing.T) {
	tbl := normalizeTable("events", &ddbtypes.TableDescription{
		BillingModeSummary: &ddbtypes.BillingModeSummary{
			BillingMode: ddbtypes.BillingModePayPerRequest,
		},
	})
	if !tbl.OnDemand {
		t.Fatal("pay-per-request table not classified as on-demand")
	}
	if tbl.ProvisionedRead != 0 || tbl.ProvisionedWrite != 0 {
		t.Fatalf("on-demand table should carry no provisioned units, got %+v", tbl)
	}
}
