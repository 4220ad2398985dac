package aws

import (
	"context"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

func TestFetchTableCapacity_SumNormalizedToPerSecond(t *testing.T) {
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cw := &mockCloudWatch{
		results: []cloudwatch.GetMetricDataOutput{
			{
				MetricDataResults: []cwtypes.MetricDataResult{
					{
						Id:         awssdk.String("r"),
						Timestamps: []time.Time{ts},
						// 30000 consumed units over a 300s period = 100 units/s.
						Values: []float64{30000},
					},
					{
						Id:         awssdk.String("w"),
						Timestamps: []time.Time{ts},
						Values:     []float64{1500},
					},
				},
			},
		},
	}

	samples, err := NewMetricsFetcher(cw).FetchTableCapacity(context.Background(), "orders", 14)
	if err != nil {
		t.Fatalf("FetchTableCapacity: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected read and write merged into 1 sample, got %d", len(samples))
	}
	if samples[0].ReadUnits != 100 {
		t.Fatalf("expected 100 read units/s, got %v", samples[0].ReadUnits)
	}
	if samples[0].WriteUnits != 5 {
		t.Fatalf("expected 5 write units/s, got %v", samples[0].WriteUnits)
	}
}

func TestFetchTableCapacity_PaginatesAndSorts(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	later := base.Add(5 * time.Minute)
	cw := &mockCloudWatch{
		results: []cloudwatch.GetMetricDataOutput{
			{
				MetricDataResults: []cwtypes.MetricDataResult{
					{
						Id:         awssdk.String("r"),
						Timestamps: []time.Time{later},
						Values:     []float64{600},
					},
				},
				NextToken: awssdk.String("page-2"),
			},
			{
				MetricDataResults: []cwtypes.MetricDataResult{
					{
						Id:         awssdk.String("r"),
						Timestamps: []time.Time{base},
						Values:     []float64{300},
					},
				},
			},
		},
	}

	samples, err := NewMetricsFetcher(cw).FetchTableCapacity(context.Background(), "orders", 14)
	if err != nil {
		t.Fatalf("FetchTableCapacity: %v", err)
	}
	if cw.call != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", cw.call)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if !samples[0].Time.Equal(base) || !samples[1].Time.Equal(later) {
		t.Fatalf("expected samples sorted ascending, got %v then %v", samples[0].Time, samples[1].Time)
	}
	if samples[0].ReadUnits != 1 || samples[1].ReadUnits != 2 {
		t.Fatalf("unexpected per-second units: %v, %v", samples[0].ReadUnits, samples[1].ReadUnits)
	}
}
