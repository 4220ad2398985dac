package capacity

import (
	"testing"
	"time"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

func testConfig() Config {
	return Config{LowWatermark: 0.2, HighWatermark: 0.8}
}

func series(points ...model.CapacitySample) []model.CapacitySample {
	return points
}

func point(minute int, read, write float64) model.CapacitySample {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return model.CapacitySample{
		Time:       base.Add(time.Duration(minute) * time.Minute),
		ReadUnits:  read,
		WriteUnits: write,
	}
}

func TestFindings_OnDemandExcluded(t *testing.T) {
	tables := []model.DynamoTable{
		{
			Name:     "events",
			OnDemand: true,
			// Even a wild sample series must not produce a finding.
			Samples: series(point(0, 10000, 10000), point(5, 0, 0)),
		},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 0 {
		t.Fatalf("expected no findings for on-demand table, got %d", len(findings))
	}
}

func TestFindings_ZeroSamplesExcluded(t *testing.T) {
	tables := []model.DynamoTable{
		{Name: "fresh", ProvisionedRead: 100, ProvisionedWrite: 100},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 0 {
		t.Fatalf("expected no findings with zero samples, got %d", len(findings))
	}
}

func TestFindings_Overprovisioned(t *testing.T) {
	tables := []model.DynamoTable{
		{
			Name:             "sleepy",
			ProvisionedRead:  100,
			ProvisionedWrite: 50,
			// Peak 5% read, 4% write: far below the 20% low watermark.
			Samples: series(point(0, 5, 2), point(5, 3, 1), point(10, 1, 0)),
		},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}

	f := findings[0]
	if f.Kind != model.KindOverprovisionedTable {
		t.Fatalf("expected overprovisioned-table, got %s", f.Kind)
	}
	if f.ResourceID != "sleepy" {
		t.Fatalf("expected table sleepy, got %s", f.ResourceID)
	}
	if f.EstimatedMonthlyWaste == 0 {
		t.Fatal("expected non-zero waste estimate for unused capacity")
	}
	if f.Evidence["read_peak_ratio"] != 0.05 {
		t.Fatalf("expected read peak ratio 0.05, got %v", f.Evidence["read_peak_ratio"])
	}
}

func TestFindings_Underprovisioned(t *testing.T) {
	tables := []model.DynamoTable{
		{
			Name:             "hot",
			ProvisionedRead:  100,
			ProvisionedWrite: 100,
			// Read peak hits 95% of provisioned capacity.
			Samples: series(point(0, 95, 10), point(5, 40, 10)),
		},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Kind != model.KindUnderprovisionedTable {
		t.Fatalf("expected underprovisioned-table, got %s", findings[0].Kind)
	}
}

func TestFindings_HealthyUtilizationNoFinding(t *testing.T) {
	tables := []model.DynamoTable{
		{
			Name:             "steady",
			ProvisionedRead:  100,
			ProvisionedWrite: 100,
			// Peak 50%: between the watermarks.
			Samples: series(point(0, 50, 40), point(5, 30, 35)),
		},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 0 {
		t.Fatalf("expected no findings for healthy table, got %d", len(findings))
	}
}

func TestFindings_SingleDimensionProvisioned(t *testing.T) {
	tables := []model.DynamoTable{
		{
			Name:            "read-only",
			ProvisionedRead: 100,
			// Write capacity unprovisioned; only the read dimension counts.
			Samples: series(point(0, 5, 0), point(5, 2, 0)),
		},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Kind != model.KindOverprovisionedTable {
		t.Fatalf("expected overprovisioned-table, got %s", findings[0].Kind)
	}
}

func TestFindings_UnderprovisionedWinsOverLowWrite(t *testing.T) {
	tables := []model.DynamoTable{
		{
			Name:             "split",
			ProvisionedRead:  100,
			ProvisionedWrite: 100,
			// Read peak over the high watermark, write nearly idle.
			Samples: series(point(0, 90, 1)),
		},
	}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Kind != model.KindUnderprovisionedTable {
		t.Fatalf("throttling risk must win, got %s", findings[0].Kind)
	}
}

func TestFindings_SortedByTableName(t *testing.T) {
	sleepy := func(name string) model.DynamoTable {
		return model.DynamoTable{
			Name:            name,
			ProvisionedRead: 100,
			Samples:         series(point(0, 1, 0)),
		}
	}
	tables := []model.DynamoTable{sleepy("zebra"), sleepy("apple")}

	findings := Findings(tables, "us-east-1", testConfig())
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if findings[0].ResourceID != "apple" || findings[1].ResourceID != "zebra" {
		t.Fatalf("expected findings sorted by table name, got %s then %s",
			findings[0].ResourceID, findings[1].ResourceID)
	}
}
