// internal/store/gorm_store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// GormStore persists dreams and purchases in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateDream(ctx context.Context, dream *models.Dream) error {
	return s.db.WithContext(ctx).Create(dream).Error
}

func (s *GormStore) GetDream(ctx context.Context, id uuid.UUID) (*models.Dream, error) {
	var dream models.Dream
	if err := s.db.WithContext(ctx).First(&dream, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dream, nil
}

func (s *GormStore) ListDreams(ctx context.Context, publicOnly bool) ([]models.Dream, error) {
	var dreams []models.Dream
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	if err := query.Find(&dreams).Error; err != nil {
		return nil, err
	}
	return dreams, nil
}

// DeleteDream is idempotent: deleting an id that is already gone succeeds.
func (s *GormStore) DeleteDream(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.Dream{}, "id = ?", id).Error
}

func (s *GormStore) SetDreamPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Dream, error) {
	if err := s.updateDream(ctx, id, map[string]interface{}{"is_public": isPublic}); err != nil {
		return nil, err
	}
	return s.GetDream(ctx, id)
}

func (s *GormStore) FindDreamByAssetID(ctx context.Context, ipAssetID string) (*models.Dream, error) {
	var dream models.Dream
	err := s.db.WithContext(ctx).
		Where("LOWER(ip_asset_id) = LOWER(?)", ipAssetID).
		First(&dream).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dream, nil
}

func (s *GormStore) UpdateDreamProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error {
	return s.updateDream(ctx, id, map[string]interface{}{"progress": progress})
}

func (s *GormStore) SetDreamAnalysis(ctx context.Context, id uuid.UUID, analysis *models.DreamAnalysis, progress models.Progress) error {
	return s.updateDream(ctx, id, map[string]interface{}{
		"analysis": analysis,
		"progress": progress,
	})
}

func (s *GormStore) SetDreamStory(ctx context.Context, id uuid.UUID, story *models.DreamStory, progress models.Progress) error {
	return s.updateDream(ctx, id, map[string]interface{}{
		"story":    story,
		"progress": progress,
	})
}

func (s *GormStore) SetDreamVisuals(ctx context.Context, id uuid.UUID, visuals models.VisualList, progress models.Progress) error {
	return s.updateDream(ctx, id, map[string]interface{}{
		"visuals":  visuals,
		"progress": progress,
	})
}

func (s *GormStore) CompleteDream(ctx context.Context, id uuid.UUID, visuals models.VisualList, contentHash string, tags []string, progress models.Progress) error {
	return s.updateDream(ctx, id, map[string]interface{}{
		"visuals":      visuals,
		"content_hash": contentHash,
		"tags":         pq.StringArray(tags),
		"status":       models.DreamStatusCompleted,
		"progress":     progress,
	})
}

func (s *GormStore) FailDream(ctx context.Context, id uuid.UUID, progress models.Progress) error {
	return s.updateDream(ctx, id, map[string]interface{}{
		"status":   models.DreamStatusFailed,
		"progress": progress,
	})
}

func (s *GormStore) AttachRegistration(ctx context.Context, id uuid.UUID, ipAssetID, ownerAddress string) error {
	return s.updateDream(ctx, id, map[string]interface{}{
		"ip_asset_id":   ipAssetID,
		"owner_address": ownerAddress,
	})
}

func (s *GormStore) CreatePurchase(ctx context.Context, purchase *models.LicensePurchase) error {
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(purchase).Error
}

func (s *GormStore) ListPurchasesByOwner(ctx context.Context, ownerAddress, ipAssetID string) ([]models.LicensePurchase, error) {
	var purchases []models.LicensePurchase
	query := s.db.WithContext(ctx).
		Where("LOWER(owner_address) = LOWER(?)", ownerAddress).
		Order("purchased_at DESC")
	if ipAssetID != "" {
		query = query.Where("LOWER(ip_asset_id) = LOWER(?)", ipAssetID)
	}
	if err := query.Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// updateDream applies a column map so the write merges at field level instead
// of replacing the whole row.
func (s *GormStore) updateDream(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).
		Model(&models.Dream{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
