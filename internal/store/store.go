// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations for dreams and license purchases.
//
// Pipeline checkpoints go through the typed partial-update methods so each save
// touches only its own columns; a concurrent isPublic toggle or registration
// attach is never clobbered by a checkpoint write.
type Store interface {
	// dreams. DeleteDream is idempotent: a missing id is not an error.
	CreateDream(ctx context.Context, dream *models.Dream) error
	GetDream(ctx context.Context, id uuid.UUID) (*models.Dream, error)
	ListDreams(ctx context.Context, publicOnly bool) ([]models.Dream, error)
	DeleteDream(ctx context.Context, id uuid.UUID) error
	SetDreamPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Dream, error)
	FindDreamByAssetID(ctx context.Context, ipAssetID string) (*models.Dream, error)

	// pipeline checkpoints
	UpdateDreamProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error
	SetDreamAnalysis(ctx context.Context, id uuid.UUID, analysis *models.DreamAnalysis, progress models.Progress) error
	SetDreamStory(ctx context.Context, id uuid.UUID, story *models.DreamStory, progress models.Progress) error
	SetDreamVisuals(ctx context.Context, id uuid.UUID, visuals models.VisualList, progress models.Progress) error
	CompleteDream(ctx context.Context, id uuid.UUID, visuals models.VisualList, contentHash string, tags []string, progress models.Progress) error
	FailDream(ctx context.Context, id uuid.UUID, progress models.Progress) error

	// registration
	AttachRegistration(ctx context.Context, id uuid.UUID, ipAssetID, ownerAddress string) error

	// license purchases
	CreatePurchase(ctx context.Context, purchase *models.LicensePurchase) error
	ListPurchasesByOwner(ctx context.Context, ownerAddress, ipAssetID string) ([]models.LicensePurchase, error)
}
