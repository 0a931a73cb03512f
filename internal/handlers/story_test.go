// internal/handlers/story_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/services"
	"github.com/dreamweave/dreamweave-backend/internal/store"
)

type storyTestEnv struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newStoryTestEnv(t *testing.T) *storyTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{} // no collaborators configured
	mem := store.NewMemoryStore()

	handler := NewStoryHandler(
		mem,
		services.NewDreamService(mem, nil),
		services.NewIPFSService(cfg),
		services.NewStoryService(cfg),
		services.NewLicenseService(mem),
		services.NewPaymentService(cfg),
	)

	r := gin.New()
	story := r.Group("/story")
	{
		story.POST("/prepare-metadata", handler.PrepareMetadata)
		story.POST("/register", handler.Register)
		story.PUT("/license", handler.RecordPurchase)
		story.GET("/license/stats", handler.GetLicenseStats)
		story.POST("/license/checkout", handler.Checkout)
	}

	return &storyTestEnv{router: r, store: mem}
}

func (e *storyTestEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestPrepareMetadataRejectsProcessingDream(t *testing.T) {
	env := newStoryTestEnv(t)

	dream := &models.Dream{
		UserID:    "user-1",
		DreamText: "a dream narrative long enough to pass",
		Status:    models.DreamStatusProcessing,
	}
	require.NoError(t, env.store.CreateDream(context.Background(), dream))

	w := env.do(t, "POST", "/story/prepare-metadata", map[string]interface{}{
		"dreamId": dream.ID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrepareMetadataMissingDream(t *testing.T) {
	env := newStoryTestEnv(t)

	w := env.do(t, "POST", "/story/prepare-metadata", map[string]interface{}{
		"dreamId": "8b9cdd3a-7a3e-4a53-9f6b-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterRejectsAlreadyRegisteredDream(t *testing.T) {
	env := newStoryTestEnv(t)
	ctx := context.Background()

	dream := &models.Dream{
		UserID:    "user-1",
		DreamText: "a dream narrative long enough to pass",
		Status:    models.DreamStatusCompleted,
	}
	require.NoError(t, env.store.CreateDream(ctx, dream))
	require.NoError(t, env.store.AttachRegistration(ctx, dream.ID,
		"0xabc0000000000000000000000000000000000001",
		"0x1111111111111111111111111111111111111111"))

	w := env.do(t, "POST", "/story/register", map[string]interface{}{
		"dreamId":       dream.ID.String(),
		"walletAddress": "0x1111111111111111111111111111111111111111",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestRecordPurchaseAndStats(t *testing.T) {
	env := newStoryTestEnv(t)
	ctx := context.Background()

	owner := "0x1111111111111111111111111111111111111111"
	asset := "0xabc0000000000000000000000000000000000001"

	dream := &models.Dream{
		UserID:    "user-1",
		DreamText: "a dream narrative long enough to pass",
		Status:    models.DreamStatusCompleted,
	}
	require.NoError(t, env.store.CreateDream(ctx, dream))
	require.NoError(t, env.store.AttachRegistration(ctx, dream.ID, asset, owner))

	for _, amount := range []int64{2, 3} {
		w := env.do(t, "PUT", "/story/license", map[string]interface{}{
			"ipAssetId":       asset,
			"licenseTermsId":  "7",
			"amount":          amount,
			"pricePerLicense": "0.1",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := env.do(t, "GET", "/story/license/stats?ownerAddress="+owner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Stats   struct {
			TotalSales   int64  `json:"totalSales"`
			TotalAmount  int64  `json:"totalAmount"`
			TotalRevenue string `json:"totalRevenue"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), resp.Stats.TotalSales)
	assert.Equal(t, int64(5), resp.Stats.TotalAmount)
	assert.Equal(t, "0.5", resp.Stats.TotalRevenue)
}

func TestStatsRequireOwnerAddress(t *testing.T) {
	env := newStoryTestEnv(t)

	w := env.do(t, "GET", "/story/license/stats", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutWithoutPaymentProvider(t *testing.T) {
	env := newStoryTestEnv(t)

	w := env.do(t, "POST", "/story/license/checkout", map[string]interface{}{
		"ipAssetId":       "0xabc0000000000000000000000000000000000001",
		"licenseTermsId":  "7",
		"amount":          1,
		"pricePerLicense": "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
