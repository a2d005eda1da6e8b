package roi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vr-eyetracking/internal/geometry"
	"vr-eyetracking/internal/models"
)

var (
	// ErrBackgroundNotDrawable is returned when a background region is requested
	// through the drawing path. Background regions are created only on load.
	ErrBackgroundNotDrawable = errors.New("background regions cannot be drawn")
	// ErrRegionNotFound is returned by operations that require an existing region.
	ErrRegionNotFound = errors.New("region not found")
)

// Draft is a region about to be added.
type Draft struct {
	Type             models.RegionType
	TaskID           string
	NormalizedCoords geometry.NormalizedRect
}

// Patch lists the region fields an update may change. Nil fields are left alone.
type Patch struct {
	NormalizedCoords *geometry.NormalizedRect `json:"normalized_coords,omitempty"`
	Name             *string                  `json:"name,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	Color            *string                  `json:"color,omitempty"`
}

// Store is the in-memory region collection of one task being edited.
//
// Ordinals come from a per-type counter seeded from the loaded ids, so an id is
// never handed out twice in a session even after deletions.
type Store struct {
	config   models.ROIConfig
	session  *EditorSession
	counters map[models.RegionType]int
	onChange func([]models.ROIRegion)
}

// NewStore returns an empty store that records dirty/selection state in session.
func NewStore(session *EditorSession) *Store {
	if session == nil {
		session = &EditorSession{}
	}
	return &Store{
		session:  session,
		counters: make(map[models.RegionType]int),
	}
}

// NewDefaultConfig is the config used when none has been saved for a task.
func NewDefaultConfig(version, taskID, backgroundImage string) models.ROIConfig {
	return models.ROIConfig{
		Version:         version,
		TaskID:          taskID,
		BackgroundImage: backgroundImage,
		Regions: models.ROIRegions{
			Keywords:     []models.ROIRegion{},
			Instructions: []models.ROIRegion{},
			Background:   []models.ROIRegion{},
		},
	}
}

// OnChange registers fn to be called with the full region list after every mutation.
func (s *Store) OnChange(fn func([]models.ROIRegion)) {
	s.onChange = fn
}

// Load adopts cfg as the working config, guarantees a background region and
// clears the session.
func (s *Store) Load(cfg models.ROIConfig) {
	s.config = cfg.Clone()
	s.session.reset()
	s.counters = make(map[models.RegionType]int)
	for _, t := range models.RegionTypes {
		list := *s.config.Regions.List(t)
		if list == nil {
			*s.config.Regions.List(t) = []models.ROIRegion{}
		}
		s.counters[t] = maxOrdinal(list)
	}
	s.ensureBackground(cfg.TaskID)
	s.notify()
}

// maxOrdinal returns the highest ordinal suffix among ids, never less than the
// list length.
func maxOrdinal(regions []models.ROIRegion) int {
	highest := len(regions)
	for _, r := range regions {
		idx := strings.LastIndex(r.ID, "_")
		if idx < 0 {
			continue
		}
		if n, err := strconv.Atoi(r.ID[idx+1:]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// TaskID is the task of the loaded config.
func (s *Store) TaskID() string {
	return s.config.TaskID
}

// Config returns a copy of the working config.
func (s *Store) Config() models.ROIConfig {
	return s.config.Clone()
}

// Regions returns every region in render order.
func (s *Store) Regions() []models.ROIRegion {
	return s.config.Regions.All()
}

// Region looks up a region by id.
func (s *Store) Region(id string) (models.ROIRegion, bool) {
	for _, r := range s.config.Regions.All() {
		if strings.EqualFold(r.ID, id) {
			return r, true
		}
	}
	return models.ROIRegion{}, false
}

// AddRegion appends a region built from draft and marks the config dirty.
func (s *Store) AddRegion(draft Draft) (models.ROIRegion, error) {
	switch draft.Type {
	case models.RegionKeyword, models.RegionInstruction:
	case models.RegionBackground:
		return models.ROIRegion{}, ErrBackgroundNotDrawable
	default:
		return models.ROIRegion{}, fmt.Errorf("unknown region type %q", draft.Type)
	}
	taskID := draft.TaskID
	if taskID == "" {
		taskID = s.config.TaskID
	}

	s.counters[draft.Type]++
	ordinal := s.counters[draft.Type]
	region := models.ROIRegion{
		ID:               fmt.Sprintf("%s_%s_%d", draft.Type, taskID, ordinal),
		Type:             draft.Type,
		TaskID:           taskID,
		NormalizedCoords: draft.NormalizedCoords,
		Color:            ColorFor(draft.Type),
		Name:             defaultName(draft.Type, ordinal),
		Description:      defaultDescription(draft.Type),
	}

	list := s.config.Regions.List(draft.Type)
	*list = append(*list, region)
	s.session.Dirty = true
	s.notify()
	return region, nil
}

// UpdateRegion merges patch into the region with the given id. Unknown ids are
// ignored.
func (s *Store) UpdateRegion(id string, patch Patch) {
	for _, t := range models.RegionTypes {
		list := *s.config.Regions.List(t)
		for i := range list {
			if !strings.EqualFold(list[i].ID, id) {
				continue
			}
			if patch.NormalizedCoords != nil {
				list[i].NormalizedCoords = *patch.NormalizedCoords
			}
			if patch.Name != nil {
				list[i].Name = *patch.Name
			}
			if patch.Description != nil {
				list[i].Description = *patch.Description
			}
			if patch.Color != nil {
				list[i].Color = *patch.Color
			}
			s.session.Dirty = true
			s.notify()
			return
		}
	}
}

// DeleteRegion removes the region with the given id, clearing the selection if
// it pointed at it. Callers confirm with the user first.
func (s *Store) DeleteRegion(id string) bool {
	for _, t := range models.RegionTypes {
		list := s.config.Regions.List(t)
		for i := range *list {
			if !strings.EqualFold((*list)[i].ID, id) {
				continue
			}
			*list = append((*list)[:i], (*list)[i+1:]...)
			if strings.EqualFold(s.session.Selected, id) {
				s.session.Selected = ""
			}
			s.session.Dirty = true
			s.notify()
			return true
		}
	}
	return false
}

// EnsureBackgroundRegion returns the task's background region, creating the
// full-extent default if there is none.
func (s *Store) EnsureBackgroundRegion(taskID string) models.ROIRegion {
	bg := s.ensureBackground(taskID)
	s.notify()
	return bg
}

func (s *Store) ensureBackground(taskID string) models.ROIRegion {
	if len(s.config.Regions.Background) > 0 {
		return s.config.Regions.Background[0]
	}
	if taskID == "" {
		taskID = s.config.TaskID
	}
	bg := models.ROIRegion{
		ID:               fmt.Sprintf("%s_%s", models.RegionBackground, taskID),
		Type:             models.RegionBackground,
		TaskID:           taskID,
		NormalizedCoords: geometry.FullExtent(),
		Color:            ColorBackground,
		Name:             defaultName(models.RegionBackground, 1),
		Description:      defaultDescription(models.RegionBackground),
	}
	s.config.Regions.Background = append(s.config.Regions.Background, bg)
	if s.counters[models.RegionBackground] < 1 {
		s.counters[models.RegionBackground] = 1
	}
	return bg
}

// Normalized returns the config ready for transmission: ids and task ids
// lowercased, every region carrying a color and description.
func (s *Store) Normalized() models.ROIConfig {
	return NormalizeConfig(s.config)
}

// NormalizeConfig applies the pre-save normalization to cfg.
func NormalizeConfig(cfg models.ROIConfig) models.ROIConfig {
	out := cfg.Clone()
	out.TaskID = strings.ToLower(out.TaskID)
	for _, t := range models.RegionTypes {
		list := *out.Regions.List(t)
		if list == nil {
			*out.Regions.List(t) = []models.ROIRegion{}
			continue
		}
		for i := range list {
			list[i].ID = strings.ToLower(list[i].ID)
			list[i].TaskID = strings.ToLower(list[i].TaskID)
			if list[i].Type == "" {
				list[i].Type = t
			}
			if list[i].Color == "" {
				list[i].Color = ColorFor(list[i].Type)
			}
			if list[i].Description == "" {
				list[i].Description = defaultDescription(list[i].Type)
			}
		}
	}
	return out
}

// MarkSaved clears the unsaved-changes flag.
func (s *Store) MarkSaved() {
	s.session.Dirty = false
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange(s.config.Regions.All())
	}
}

func defaultName(t models.RegionType, ordinal int) string {
	switch t {
	case models.RegionKeyword:
		return fmt.Sprintf("Keyword %d", ordinal)
	case models.RegionInstruction:
		return fmt.Sprintf("Instruction %d", ordinal)
	default:
		return "Background"
	}
}

func defaultDescription(t models.RegionType) string {
	switch t {
	case models.RegionKeyword:
		return "Keyword area"
	case models.RegionInstruction:
		return "Instruction text area"
	default:
		return "Full stimulus background"
	}
}
