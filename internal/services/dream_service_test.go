// internal/services/dream_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/store"
)

type fakeAssetRemover struct {
	deleted []string
}

func (f *fakeAssetRemover) DeleteAsset(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestCreateDreamInitialState(t *testing.T) {
	svc := NewDreamService(store.NewMemoryStore(), nil)

	dream, err := svc.CreateDream(context.Background(), &CreateDreamRequest{
		DreamText: "I was flying over a city of lanterns.",
		UserID:    "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.DreamStatusProcessing, dream.Status)
	assert.Equal(t, 0, dream.Progress.CurrentStep)
	assert.Equal(t, models.TotalPipelineSteps, dream.Progress.TotalSteps)
	assert.Equal(t, models.StepKeyStarting, dream.Progress.StepKey)
	assert.Nil(t, dream.Analysis)
	assert.Nil(t, dream.Story)
	assert.Empty(t, dream.Visuals)
	assert.Equal(t, models.ModelProfileStandard, dream.Model)
}

func TestCreateDreamValidation(t *testing.T) {
	svc := NewDreamService(store.NewMemoryStore(), nil)

	cases := []struct {
		name string
		req  CreateDreamRequest
	}{
		{"too short", CreateDreamRequest{DreamText: "short", UserID: "user-1"}},
		{"missing user", CreateDreamRequest{DreamText: "I was flying over a city of lanterns."}},
		{"bad model", CreateDreamRequest{DreamText: "I was flying over a city of lanterns.", UserID: "u", Model: "turbo"}},
		{"bad address", CreateDreamRequest{DreamText: "I was flying over a city of lanterns.", UserID: "u", CreatorAddress: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateDream(context.Background(), &tc.req)
			assert.Error(t, err)
		})
	}
}

func TestListDreamsOrderingAndPublicFilter(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewDreamService(mem, nil)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, public := range []bool{true, false, true} {
		dream := &models.Dream{
			UserID:    "user-1",
			DreamText: "dream narrative long enough",
			IsPublic:  public,
			Status:    models.DreamStatusCompleted,
		}
		dream.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, mem.CreateDream(ctx, dream))
	}

	all, total, err := svc.ListDreams(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for i := 1; i < len(all); i++ {
		assert.True(t, !all[i-1].CreatedAt.Before(all[i].CreatedAt), "newest first")
	}

	public, publicTotal, err := svc.ListDreams(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, publicTotal)
	for _, d := range public {
		assert.True(t, d.IsPublic)
	}
}

func TestDeleteDreamThenGet(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewDreamService(mem, nil)
	ctx := context.Background()

	dream, err := svc.CreateDream(ctx, &CreateDreamRequest{
		DreamText: "I was flying over a city of lanterns.",
		UserID:    "user-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDream(ctx, dream.ID))
	_, err = svc.GetDream(ctx, dream.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDreamRemovesVisualAssets(t *testing.T) {
	mem := store.NewMemoryStore()
	remover := &fakeAssetRemover{}
	svc := NewDreamService(mem, remover)
	ctx := context.Background()

	dream := &models.Dream{
		UserID:    "user-1",
		DreamText: "dream narrative long enough",
		Status:    models.DreamStatusCompleted,
		Visuals: models.VisualList{
			{Kind: "cover", URL: "https://assets.example.com/visuals/abc/cover.png"},
			{Kind: "scene", URL: "https://assets.example.com/visuals/abc/scene_1.png"},
			{Kind: "scene", URL: "https://elsewhere.example.com/unmanaged.png"},
		},
	}
	require.NoError(t, mem.CreateDream(ctx, dream))

	require.NoError(t, svc.DeleteDream(ctx, dream.ID))
	assert.Equal(t, []string{"visuals/abc/cover.png", "visuals/abc/scene_1.png"}, remover.deleted)
}

func TestDeleteDreamMissingIDIsNoop(t *testing.T) {
	remover := &fakeAssetRemover{}
	svc := NewDreamService(store.NewMemoryStore(), remover)

	require.NoError(t, svc.DeleteDream(context.Background(), uuid.New()))
	assert.Empty(t, remover.deleted)
}

func TestNormalizeProfile(t *testing.T) {
	assert.Equal(t, models.ModelProfilePremium, NormalizeProfile("premium"))
	assert.Equal(t, models.ModelProfileStandard, NormalizeProfile("standard"))
	assert.Equal(t, models.ModelProfileStandard, NormalizeProfile(""))
	assert.Equal(t, models.ModelProfileStandard, NormalizeProfile("unknown"))
}
