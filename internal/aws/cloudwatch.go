package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// samplePeriodSeconds is the aggregation period for capacity metrics
// (5 minutes, matching DynamoDB's metric resolution).
const samplePeriodSeconds = 300

// CloudWatchAPI is the minimal interface for CloudWatch operations.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, input *cloudwatch.GetMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// MetricsFetcher retrieves table capacity consumption from CloudWatch.
type MetricsFetcher struct {
	client CloudWatchAPI
}

// NewMetricsFetcher creates a fetcher using the given CloudWatch client.
func NewMetricsFetcher(client CloudWatchAPI) *MetricsFetcher {
	return &MetricsFetcher{client: client}
}

// FetchTableCapacity returns the consumed read/write capacity series for
// a table over the lookback window. CloudWatch reports consumption as a
// Sum per period; dividing by the period length yields per-second units
// directly comparable to provisioned capacity.
func (f *MetricsFetcher) FetchTableCapacity(ctx context.Context, tableName string, lookbackDays int) ([]model.CapacitySample, error) {
	now := time.Now().UTC().Truncate(samplePeriodSeconds * time.Second)
	start := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	queries := []cwtypes.MetricDataQuery{
		capacityQuery("r", "ConsumedReadCapacityUnits", tableName),
		capacityQuery("w", "ConsumedWriteCapacityUnits", tableName),
	}

	byTime := make(map[time.Time]*model.CapacitySample)
	var nextToken *string
	for {
		out, err := f.client.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
			MetricDataQueries: queries,
			StartTime:         awssdk.Time(start),
			EndTime:           awssdk.Time(now),
			ScanBy:            cwtypes.ScanByTimestampAscending,
			NextToken:         nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("get capacity metrics for %s: %w", tableName, err)
		}

		for _, result := range out.MetricDataResults {
			if result.Id == nil {
				continue
			}
			for i, ts := range result.Timestamps {
				if i >= len(result.Values) {
					break
				}
				sample, ok := byTime[ts]
				if !ok {
					sample = &model.CapacitySample{Time: ts}
					byTime[ts] = sample
				}
				perSecond := result.Values[i] / samplePeriodSeconds
				switch *result.Id {
				case "r":
					sample.ReadUnits = perSecond
				case "w":
					sample.WriteUnits = perSecond
				}
			}
		}

		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}

	samples := make([]model.CapacitySample, 0, len(byTime))
	for _, s := range byTime {
		samples = append(samples, *s)
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	return samples, nil
}

func capacityQuery(id, metricName, tableName string) cwtypes.MetricDataQuery {
	return cwtypes.MetricDataQuery{
		Id: awssdk.String(id),
		MetricStat: &cwtypes.MetricStat{
			Metric: &cwtypes.Metric{
				Namespace:  awssdk.String("AWS/DynamoDB"),
				MetricName: awssdk.String(metricName),
				Dimensions: []cwtypes.Dimension{
					{
						Name:  awssdk.String("TableName"),
						Value: awssdk.String(tableName),
					},
				},
			},
			Period: awssdk.Int32(samplePeriodSeconds),
			Stat:   awssdk.String("Sum"),
		},
	}
}
