package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vr-eyetracking/internal/geometry"

	"gorm.io/datatypes"
)

// RegionType is the semantic layer a region belongs to.
type RegionType string

const (
	RegionKeyword     RegionType = "KW"
	RegionInstruction RegionType = "INST"
	RegionBackground  RegionType = "BG"
)

// RegionTypes lists the layers in render order, bottom first.
var RegionTypes = []RegionType{RegionBackground, RegionKeyword, RegionInstruction}

// ParseRegionType accepts the type code in any case.
func ParseRegionType(s string) (RegionType, error) {
	switch RegionType(strings.ToUpper(s)) {
	case RegionKeyword:
		return RegionKeyword, nil
	case RegionInstruction:
		return RegionInstruction, nil
	case RegionBackground:
		return RegionBackground, nil
	}
	return "", fmt.Errorf("unknown region type %q", s)
}

// ROIRegion is one rectangular region of interest on a stimulus image.
type ROIRegion struct {
	ID               string                  `json:"id"`
	Type             RegionType              `json:"type"`
	TaskID           string                  `json:"task_id"`
	NormalizedCoords geometry.NormalizedRect `json:"normalized_coords"`
	Color            string                  `json:"color"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description"`
}

// ROIRegions groups regions by layer.
type ROIRegions struct {
	Keywords     []ROIRegion `json:"keywords"`
	Instructions []ROIRegion `json:"instructions"`
	Background   []ROIRegion `json:"background"`
}

// List returns a pointer to the slice holding regions of type t.
func (r *ROIRegions) List(t RegionType) *[]ROIRegion {
	switch t {
	case RegionKeyword:
		return &r.Keywords
	case RegionInstruction:
		return &r.Instructions
	default:
		return &r.Background
	}
}

// All returns every region in render order: background, keywords, instructions.
func (r ROIRegions) All() []ROIRegion {
	all := make([]ROIRegion, 0, len(r.Background)+len(r.Keywords)+len(r.Instructions))
	all = append(all, r.Background...)
	all = append(all, r.Keywords...)
	all = append(all, r.Instructions...)
	return all
}

// Clone deep-copies the region lists.
func (r ROIRegions) Clone() ROIRegions {
	cp := func(in []ROIRegion) []ROIRegion {
		out := make([]ROIRegion, len(in))
		copy(out, in)
		return out
	}
	return ROIRegions{
		Keywords:     cp(r.Keywords),
		Instructions: cp(r.Instructions),
		Background:   cp(r.Background),
	}
}

// ROIConfig is the region configuration of one task for one stimulus version.
type ROIConfig struct {
	Version         string     `json:"version"`
	TaskID          string     `json:"task_id"`
	BackgroundImage string     `json:"background_image"`
	Regions         ROIRegions `json:"regions"`
}

// Clone deep-copies the config.
func (c ROIConfig) Clone() ROIConfig {
	c.Regions = c.Regions.Clone()
	return c
}

// ROIConfigRecord is the persisted form of an ROIConfig.
type ROIConfigRecord struct {
	ID              uint   `gorm:"primaryKey"`
	Version         string `gorm:"uniqueIndex:idx_roi_version_task;not null"`
	TaskID          string `gorm:"uniqueIndex:idx_roi_version_task;not null"`
	BackgroundImage string
	Regions         datatypes.JSON `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ToConfig decodes the stored region set.
func (r *ROIConfigRecord) ToConfig() (*ROIConfig, error) {
	cfg := &ROIConfig{
		Version:         r.Version,
		TaskID:          r.TaskID,
		BackgroundImage: r.BackgroundImage,
	}
	if len(r.Regions) > 0 {
		if err := json.Unmarshal(r.Regions, &cfg.Regions); err != nil {
			return nil, fmt.Errorf("failed to decode regions for %s/%s: %w", r.Version, r.TaskID, err)
		}
	}
	return cfg, nil
}

// NewROIConfigRecord encodes cfg for storage.
func NewROIConfigRecord(cfg ROIConfig) (*ROIConfigRecord, error) {
	data, err := json.Marshal(cfg.Regions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode regions: %w", err)
	}
	return &ROIConfigRecord{
		Version:         cfg.Version,
		TaskID:          cfg.TaskID,
		BackgroundImage: cfg.BackgroundImage,
		Regions:         datatypes.JSON(data),
	}, nil
}
