package pricing

import (
	_ "embed"
	"encoding/json"
	"log/slog"
)

const hoursPerMonth = 730

//go:embed pricing.json
var pricingData []byte

// pricingDB holds the parsed pricing data keyed by price class, then
// type, then region.
var pricingDB map[string]map[string]map[string]float64

func init() {
	if err := json.Unmarshal(pricingData, &pricingDB); err != nil {
		slog.Warn("Failed to parse embedded pricing data", "error", err)
		pricingDB = make(map[string]map[string]map[string]float64)
	}
}

// lookup returns the price for a class, type, and region.
// Falls back to us-east-1 when the region is not listed.
func lookup(class, typ, region string) (float64, bool) {
	types, ok := pricingDB[class]
	if !ok {
		return 0, false
	}
	regions, ok := types[typ]
	if !ok {
		return 0, false
	}
	price, ok := regions[region]
	if !ok {
		price, ok = regions["us-east-1"]
		if !ok {
			return 0, false
		}
	}
	return price, true
}

// MonthlyVolumeCost estimates the monthly storage cost of an EBS volume
// in USD. Returns 0 if the volume type is unknown.
func MonthlyVolumeCost(volumeType string, sizeGiB int, region string) float64 {
	perGB, ok := lookup("ebs", volumeType, region)
	if !ok {
		return 0
	}
	return perGB * float64(sizeGiB)
}

// MonthlySnapshotCost estimates the monthly storage cost of an EBS
// snapshot in USD. Snapshots are incremental, so the full volume size is
// an upper bound.
func MonthlySnapshotCost(sizeGiB int, region string) float64 {
	perGB, ok := lookup("snapshot", "standard", region)
	if !ok {
		return 0
	}
	return perGB * float64(sizeGiB)
}

// MonthlyTableCapacityCost estimates the monthly cost of provisioned
// DynamoDB capacity units in USD.
func MonthlyTableCapacityCost(readUnits, writeUnits float64, region string) float64 {
	rcuHour, okR := lookup("dynamodb", "rcu", region)
	wcuHour, okW := lookup("dynamodb", "wcu", region)
	if !okR || !okW {
		return 0
	}
	return (readUnits*rcuHour + writeUnits*wcuHour) * hoursPerMonth
}
