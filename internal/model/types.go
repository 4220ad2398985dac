package model

import "time"

// Family identifies a resource family that can be scanned.
type Family string

const (
	FamilyVolumes   Family = "volumes"
	FamilySnapshots Family = "snapshots"
	FamilyImages    Family = "images"
	FamilyTables    Family = "tables"
)

// AllFamilies lists every scannable resource family.
func AllFamilies() []Family {
	return []Family{FamilyVolumes, FamilySnapshots, FamilyImages, FamilyTables}
}

// EbsVolume is a normalized EBS volume record.
type EbsVolume struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Type       string    `json:"type"`
	SizeGiB    int32     `json:"size_gib"`
	State      string    `json:"state"`
	AttachedTo []string  `json:"attached_to,omitempty"`
	Created    time.Time `json:"created"`
}

// EbsSnapshot is a normalized EBS snapshot record. VolumeID may be empty
// when the source volume was deleted before the scan.
type EbsSnapshot struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	VolumeID string    `json:"volume_id,omitempty"`
	SizeGiB  int32     `json:"size_gib"`
	Started  time.Time `json:"started"`
}

// Image is a normalized AMI record owned by the scanned account.
type Image struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Public      bool      `json:"public"`
	Created     time.Time `json:"created"`
	SnapshotIDs []string  `json:"snapshot_ids,omitempty"`
}

// LaunchRefSource identifies the construct that references an AMI.
type LaunchRefSource string

const (
	RefInstance            LaunchRefSource = "instance"
	RefLaunchTemplate      LaunchRefSource = "launch-template"
	RefLaunchConfiguration LaunchRefSource = "launch-configuration"
	RefAutoScalingGroup    LaunchRefSource = "autoscaling-group"
)

// LaunchRef records that a live construct boots from the given image.
type LaunchRef struct {
	ImageID  string          `json:"image_id"`
	Source   LaunchRefSource `json:"source"`
	SourceID string          `json:"source_id"`
}

// CapacitySample is one point of per-second consumed capacity for a table.
type CapacitySample struct {
	Time       time.Time `json:"time"`
	ReadUnits  float64   `json:"read_units"`
	WriteUnits float64   `json:"write_units"`
}

// DynamoTable is a normalized DynamoDB table with its consumption window.
type DynamoTable struct {
	Name             string           `json:"name"`
	OnDemand         bool             `json:"on_demand"`
	ProvisionedRead  float64          `json:"provisioned_read"`
	ProvisionedWrite float64          `json:"provisioned_write"`
	Samples          []CapacitySample `json:"samples,omitempty"`
}

// RegionResources holds everything one region scan fetched.
type RegionResources struct {
	Region     string
	Volumes    []EbsVolume
	Snapshots  []EbsSnapshot
	Images     []Image
	LaunchRefs []LaunchRef
	Tables     []DynamoTable
}
