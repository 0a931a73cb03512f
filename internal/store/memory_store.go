// internal/store/memory_store.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// MemoryStore keeps records in-process. It backs service and handler tests and
// local development without PostgreSQL.
type MemoryStore struct {
	mu        sync.RWMutex
	dreams    map[uuid.UUID]models.Dream
	purchases []models.LicensePurchase
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dreams: make(map[uuid.UUID]models.Dream),
	}
}

func (m *MemoryStore) CreateDream(ctx context.Context, dream *models.Dream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dream.ID == uuid.Nil {
		dream.ID = uuid.New()
	}
	now := time.Now()
	if dream.CreatedAt.IsZero() {
		dream.CreatedAt = now
	}
	dream.UpdatedAt = now
	m.dreams[dream.ID] = *dream
	return nil
}

func (m *MemoryStore) GetDream(ctx context.Context, id uuid.UUID) (*models.Dream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dream, ok := m.dreams[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := dream
	return &copy, nil
}

func (m *MemoryStore) ListDreams(ctx context.Context, publicOnly bool) ([]models.Dream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dreams := make([]models.Dream, 0, len(m.dreams))
	for _, d := range m.dreams {
		if publicOnly && !d.IsPublic {
			continue
		}
		dreams = append(dreams, d)
	}
	sort.Slice(dreams, func(i, j int) bool {
		return dreams[i].CreatedAt.After(dreams[j].CreatedAt)
	})
	return dreams, nil
}

func (m *MemoryStore) DeleteDream(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dreams, id)
	return nil
}

func (m *MemoryStore) SetDreamPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Dream, error) {
	var updated *models.Dream
	err := m.update(id, func(d *models.Dream) {
		d.IsPublic = isPublic
	})
	if err != nil {
		return nil, err
	}
	updated, _ = m.GetDream(ctx, id)
	return updated, nil
}

func (m *MemoryStore) FindDreamByAssetID(ctx context.Context, ipAssetID string) (*models.Dream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.dreams {
		if d.IPAssetID != "" && strings.EqualFold(d.IPAssetID, ipAssetID) {
			copy := d
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateDreamProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error {
	return m.update(id, func(d *models.Dream) {
		d.Progress = progress
	})
}

func (m *MemoryStore) SetDreamAnalysis(ctx context.Context, id uuid.UUID, analysis *models.DreamAnalysis, progress models.Progress) error {
	return m.update(id, func(d *models.Dream) {
		d.Analysis = analysis
		d.Progress = progress
	})
}

func (m *MemoryStore) SetDreamStory(ctx context.Context, id uuid.UUID, story *models.DreamStory, progress models.Progress) error {
	return m.update(id, func(d *models.Dream) {
		d.Story = story
		d.Progress = progress
	})
}

func (m *MemoryStore) SetDreamVisuals(ctx context.Context, id uuid.UUID, visuals models.VisualList, progress models.Progress) error {
	return m.update(id, func(d *models.Dream) {
		d.Visuals = visuals
		d.Progress = progress
	})
}

func (m *MemoryStore) CompleteDream(ctx context.Context, id uuid.UUID, visuals models.VisualList, contentHash string, tags []string, progress models.Progress) error {
	return m.update(id, func(d *models.Dream) {
		d.Visuals = visuals
		d.ContentHash = contentHash
		d.Tags = tags
		d.Status = models.DreamStatusCompleted
		d.Progress = progress
	})
}

func (m *MemoryStore) FailDream(ctx context.Context, id uuid.UUID, progress models.Progress) error {
	return m.update(id, func(d *models.Dream) {
		d.Status = models.DreamStatusFailed
		d.Progress = progress
	})
}

func (m *MemoryStore) AttachRegistration(ctx context.Context, id uuid.UUID, ipAssetID, ownerAddress string) error {
	return m.update(id, func(d *models.Dream) {
		d.IPAssetID = ipAssetID
		d.OwnerAddress = ownerAddress
	})
}

func (m *MemoryStore) CreatePurchase(ctx context.Context, purchase *models.LicensePurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now()
	}
	purchase.CreatedAt = time.Now()
	purchase.UpdatedAt = purchase.CreatedAt
	m.purchases = append(m.purchases, *purchase)
	return nil
}

func (m *MemoryStore) ListPurchasesByOwner(ctx context.Context, ownerAddress, ipAssetID string) ([]models.LicensePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []models.LicensePurchase
	for _, p := range m.purchases {
		if !strings.EqualFold(p.OwnerAddress, ownerAddress) {
			continue
		}
		if ipAssetID != "" && !strings.EqualFold(p.IPAssetID, ipAssetID) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *MemoryStore) update(id uuid.UUID, apply func(*models.Dream)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dream, ok := m.dreams[id]
	if !ok {
		return ErrNotFound
	}
	apply(&dream)
	dream.UpdatedAt = time.Now()
	m.dreams[id] = dream
	return nil
}
