// internal/services/dream_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/store"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// AssetRemover deletes a stored visual asset by key.
type AssetRemover interface {
	DeleteAsset(ctx context.Context, key string) error
}

type DreamService struct {
	store  store.Store
	assets AssetRemover
}

type CreateDreamRequest struct {
	DreamText      string `json:"dreamText" validate:"required,min=10"`
	UserID         string `json:"userId" validate:"required"`
	Model          string `json:"model" validate:"omitempty,oneof=standard premium"`
	CreatorAddress string `json:"creatorAddress" validate:"omitempty,eth_address"`
}

func NewDreamService(st store.Store, assets AssetRemover) *DreamService {
	return &DreamService{store: st, assets: assets}
}

// CreateDream persists the initial package snapshot: processing status, empty
// analysis/story/visuals, progress at step 0. The pipeline runs separately.
func (s *DreamService) CreateDream(ctx context.Context, req *CreateDreamRequest) (*models.Dream, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	dream := &models.Dream{
		UserID:         req.UserID,
		DreamText:      req.DreamText,
		RecordedAt:     time.Now(),
		Model:          NormalizeProfile(req.Model),
		Visuals:        models.VisualList{},
		Status:         models.DreamStatusProcessing,
		Progress:       models.NewProgress(0, models.StepKeyStarting),
		CreatorAddress: req.CreatorAddress,
	}

	if err := s.store.CreateDream(ctx, dream); err != nil {
		return nil, fmt.Errorf("failed to create dream: %w", err)
	}
	return dream, nil
}

func (s *DreamService) GetDream(ctx context.Context, id uuid.UUID) (*models.Dream, error) {
	return s.store.GetDream(ctx, id)
}

// ListDreams returns dreams newest-first, optionally only public ones.
func (s *DreamService) ListDreams(ctx context.Context, publicOnly bool) ([]models.Dream, int, error) {
	dreams, err := s.store.ListDreams(ctx, publicOnly)
	if err != nil {
		return nil, 0, err
	}
	return dreams, len(dreams), nil
}

// SetPublic toggles the only mutable field on a terminal dream.
func (s *DreamService) SetPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Dream, error) {
	return s.store.SetDreamPublic(ctx, id, isPublic)
}

// DeleteDream removes the package row and its generated visual assets. The
// delete is idempotent: an id that is already gone is not an error. Asset
// cleanup is best effort; a failed object delete is logged, not surfaced.
func (s *DreamService) DeleteDream(ctx context.Context, id uuid.UUID) error {
	dream, err := s.store.GetDream(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteDream(ctx, id); err != nil {
		return err
	}

	if s.assets != nil {
		for _, visual := range dream.Visuals {
			key := AssetKeyFromURL(visual.URL)
			if key == "" {
				continue
			}
			if err := s.assets.DeleteAsset(ctx, key); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"dream_id": id,
					"key":      key,
				}).Warn("Failed to delete visual asset")
			}
		}
	}
	return nil
}

// NormalizeProfile maps the request model selector onto a supported profile;
// anything unknown falls back to standard.
func NormalizeProfile(model string) models.ModelProfile {
	if models.ModelProfile(model) == models.ModelProfilePremium {
		return models.ModelProfilePremium
	}
	return models.ModelProfileStandard
}
