package services

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"vr-eyetracking/internal/models"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnknownStimulus is returned for a version/task missing from the catalog.
var ErrUnknownStimulus = errors.New("unknown stimulus")

// StimulusService resolves background images and their pixel dimensions.
type StimulusService struct {
	log      *zap.Logger
	catalog  *models.StimulusCatalog
	imageDir string
}

func NewStimulusService(log *zap.Logger, catalog *models.StimulusCatalog, imageDir string) *StimulusService {
	return &StimulusService{log: log, catalog: catalog, imageDir: imageDir}
}

// Catalog returns every known stimulus.
func (s *StimulusService) Catalog() []models.Stimulus {
	if s.catalog == nil {
		return []models.Stimulus{}
	}
	return s.catalog.Stimuli
}

func (s *StimulusService) path(version, taskID string) (models.Stimulus, string, error) {
	stim, ok := s.catalog.Find(version, taskID)
	if !ok {
		return models.Stimulus{}, "", fmt.Errorf("%w: %s/%s", ErrUnknownStimulus, version, taskID)
	}
	return stim, filepath.Join(s.imageDir, filepath.Clean("/"+stim.Filename)), nil
}

// Metadata reads only the image header to report its size.
func (s *StimulusService) Metadata(version, taskID string) (models.BackgroundImage, error) {
	stim, path, err := s.path(version, taskID)
	if err != nil {
		return models.BackgroundImage{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return models.BackgroundImage{}, fmt.Errorf("failed to open stimulus image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return models.BackgroundImage{}, fmt.Errorf("failed to read stimulus image header: %w", err)
	}
	s.log.Debug("Stimulus metadata read",
		zap.String("file", stim.Filename), zap.String("format", format),
		zap.Int("width", cfg.Width), zap.Int("height", cfg.Height))

	return models.BackgroundImage{
		Filename:   stim.Filename,
		Dimensions: models.ImageDimensions{Width: cfg.Width, Height: cfg.Height},
	}, nil
}

// Image decodes the full background image.
func (s *StimulusService) Image(version, taskID string) (image.Image, models.BackgroundImage, error) {
	stim, path, err := s.path(version, taskID)
	if err != nil {
		return nil, models.BackgroundImage{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, models.BackgroundImage{}, fmt.Errorf("failed to open stimulus image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, models.BackgroundImage{}, fmt.Errorf("failed to decode stimulus image: %w", err)
	}
	b := img.Bounds()
	return img, models.BackgroundImage{
		Filename:   stim.Filename,
		Dimensions: models.ImageDimensions{Width: b.Dx(), Height: b.Dy()},
	}, nil
}
