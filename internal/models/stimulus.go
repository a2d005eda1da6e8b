package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Stimulus maps a task of a stimulus version to its background image file.
type Stimulus struct {
	Version  string `yaml:"version" json:"version"`
	TaskID   string `yaml:"task_id" json:"task_id"`
	Filename string `yaml:"filename" json:"filename"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
}

// StimulusCatalog lists every known stimulus.
type StimulusCatalog struct {
	Stimuli []Stimulus `yaml:"stimuli"`
}

// ImageDimensions is the pixel size of a background image.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BackgroundImage is the metadata the editor needs to size its canvas.
type BackgroundImage struct {
	Filename   string          `json:"filename"`
	Dimensions ImageDimensions `json:"dimensions"`
}

// LoadStimulusCatalog reads and parses the stimulus catalog file.
func LoadStimulusCatalog(path string) (*StimulusCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stimulus catalog: %w", err)
	}

	var catalog StimulusCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stimulus catalog YAML: %w", err)
	}
	return &catalog, nil
}

// Find returns the stimulus for version/task.
func (c *StimulusCatalog) Find(version, taskID string) (Stimulus, bool) {
	if c == nil {
		return Stimulus{}, false
	}
	for _, s := range c.Stimuli {
		if s.Version == version && s.TaskID == taskID {
			return s, true
		}
	}
	return Stimulus{}, false
}
