package aws

import (
	"context"
	"log/slog"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// familyTimeout bounds how long one resource family's calls may take, so
// a hung API never stalls the whole region task.
const familyTimeout = 5 * time.Minute

// RegionScanner fetches and normalizes the requested resource families
// for one region. A failure in one family never prevents results for the
// others: failures are collected, not raised.
type RegionScanner struct {
	region       string
	families     []model.Family
	lookbackDays int

	ec2Client   ImageAPI
	volumes     VolumeAPI
	snapshots   SnapshotAPI
	autoscaling AutoScalingAPI
	tables      DynamoDBAPI
	metrics     *MetricsFetcher

	volumesFetched bool
}

// NewRegionScanner wires real service clients for the given region config.
func NewRegionScanner(cfg awssdk.Config, region string, families []model.Family, lookbackDays int) *RegionScanner {
	ec2Client := ec2.NewFromConfig(cfg)
	return &RegionScanner{
		region:       region,
		families:     families,
		lookbackDays: lookbackDays,
		ec2Client:    ec2Client,
		volumes:      ec2Client,
		snapshots:    ec2Client,
		autoscaling:  autoscaling.NewFromConfig(cfg),
		tables:       dynamodb.NewFromConfig(cfg),
		metrics:      NewMetricsFetcher(cloudwatch.NewFromConfig(cfg)),
	}
}

// Scan fetches every requested family in canonical order (volumes before
// snapshots, since the volume set is the ground truth for orphan
// detection). The returned resources hold whatever succeeded; the error
// list names the families that did not.
func (s *RegionScanner) Scan(ctx context.Context) (*model.RegionResources, []model.FamilyError) {
	res := &model.RegionResources{Region: s.region}
	var errs []model.FamilyError

	requested := make(map[model.Family]bool, len(s.families))
	for _, f := range s.families {
		requested[f] = true
	}

	for _, family := range model.AllFamilies() {
		if !requested[family] {
			continue
		}
		if ctx.Err() != nil {
			errs = append(errs, familyError(family, ctx.Err()))
			continue
		}

		fctx, cancel := context.WithTimeout(ctx, familyTimeout)
		err := s.scanFamily(fctx, family, res)
		cancel()

		if err != nil {
			slog.Warn("Resource family scan failed", "region", s.region, "family", family, "error", err)
			errs = append(errs, familyError(family, err))
		}
	}

	return res, errs
}

func (s *RegionScanner) scanFamily(ctx context.Context, family model.Family, res *model.RegionResources) error {
	slog.Debug("Scanning resource family", "region", s.region, "family", family)

	switch family {
	case model.FamilyVolumes:
		volumes, err := fetchVolumes(ctx, s.volumes)
		if err != nil {
			return err
		}
		res.Volumes = volumes
		s.volumesFetched = true

	case model.FamilySnapshots:
		// Orphan detection tests snapshot source ids against the region's
		// volume set, so that set is fetched here when the volumes family
		// was not requested (or its own fetch failed).
		if !s.volumesFetched {
			volumes, err := fetchVolumes(ctx, s.volumes)
			if err != nil {
				return err
			}
			res.Volumes = volumes
			s.volumesFetched = true
		}
		snapshots, err := fetchSnapshots(ctx, s.snapshots)
		if err != nil {
			return err
		}
		res.Snapshots = snapshots

	case model.FamilyImages:
		images, err := fetchImages(ctx, s.ec2Client)
		if err != nil {
			return err
		}
		refs, err := fetchLaunchRefs(ctx, s.ec2Client, s.autoscaling)
		if err != nil {
			return err
		}
		res.Images = images
		res.LaunchRefs = refs

	case model.FamilyTables:
		tables, err := fetchTables(ctx, s.tables)
		if err != nil {
			return err
		}
		for i := range tables {
			if tables[i].OnDemand {
				continue
			}
			samples, err := s.metrics.FetchTableCapacity(ctx, tables[i].Name, s.lookbackDays)
			if err != nil {
				// Keep the table without samples; the capacity analyzer
				// treats missing data as insufficient, not as a finding.
				res.Tables = tables
				return err
			}
			tables[i].Samples = samples
		}
		res.Tables = tables
	}

	return nil
}
