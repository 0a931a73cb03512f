// internal/handlers/dream_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamweave/dreamweave-backend/internal/jobs"
	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/services"
	"github.com/dreamweave/dreamweave-backend/internal/store"
)

type dreamTestEnv struct {
	router *gin.Engine
	store  *store.MemoryStore
	redis  *redis.Client
	stream string
}

func newDreamTestEnv(t *testing.T) *dreamTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mem := store.NewMemoryStore()
	queue := jobs.NewQueue(client, "test:jobs", "pipeline")
	handler := NewDreamHandler(services.NewDreamService(mem, nil), queue)

	r := gin.New()
	dreams := r.Group("/dreams")
	{
		dreams.POST("/create", handler.CreateDream)
		dreams.GET("", handler.ListDreams)
		dreams.GET("/:id", handler.GetDream)
		dreams.PATCH("/:id", handler.UpdateDream)
		dreams.DELETE("/:id", handler.DeleteDream)
		dreams.GET("/:id/progress", handler.StreamProgress)
	}

	return &dreamTestEnv{router: r, store: mem, redis: client, stream: "test:jobs"}
}

func (e *dreamTestEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
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

func (e *dreamTestEnv) seedDream(t *testing.T, mutate func(*models.Dream)) *models.Dream {
	t.Helper()
	dream := &models.Dream{
		UserID:    "user-1",
		DreamText: "a dream narrative long enough to pass",
		Status:    models.DreamStatusProcessing,
		Progress:  models.NewProgress(0, models.StepKeyStarting),
	}
	if mutate != nil {
		mutate(dream)
	}
	require.NoError(t, e.store.CreateDream(context.Background(), dream))
	return dream
}

func TestCreateDreamAcceptedAndEnqueued(t *testing.T) {
	env := newDreamTestEnv(t)

	w := env.do(t, "POST", "/dreams/create", map[string]interface{}{
		"dreamText": "I dreamt of a lighthouse made of whale song.",
		"userId":    "user-1",
		"model":     "premium",
	})

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["success"].(bool))

	dreamID, err := uuid.Parse(resp["dreamId"].(string))
	require.NoError(t, err)

	// Initial snapshot is persisted before the pipeline runs.
	dream, err := env.store.GetDream(context.Background(), dreamID)
	require.NoError(t, err)
	assert.Equal(t, models.DreamStatusProcessing, dream.Status)
	assert.Equal(t, 0, dream.Progress.CurrentStep)

	// Exactly one job landed on the stream.
	count, err := env.redis.XLen(context.Background(), env.stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateDreamValidationError(t *testing.T) {
	env := newDreamTestEnv(t)

	w := env.do(t, "POST", "/dreams/create", map[string]interface{}{
		"dreamText": "short",
		"userId":    "user-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp["success"].(bool))

	count, err := env.redis.XLen(context.Background(), env.stream).Result()
	require.NoError(t, err)
	assert.Zero(t, count, "invalid requests must not enqueue jobs")
}

func TestGetDreamNotFound(t *testing.T) {
	env := newDreamTestEnv(t)

	w := env.do(t, "GET", "/dreams/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDreamsPublicFilter(t *testing.T) {
	env := newDreamTestEnv(t)
	env.seedDream(t, func(d *models.Dream) { d.IsPublic = true })
	env.seedDream(t, nil)

	w := env.do(t, "GET", "/dreams?public=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Dreams  []models.Dream `json:"dreams"`
		Total   int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Dreams, 1)
	assert.True(t, resp.Dreams[0].IsPublic)
}

func TestUpdateDreamTogglesPublic(t *testing.T) {
	env := newDreamTestEnv(t)
	dream := env.seedDream(t, nil)

	w := env.do(t, "PATCH", "/dreams/"+dream.ID.String(), map[string]interface{}{"isPublic": true})
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := env.store.GetDream(context.Background(), dream.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
}

func TestUpdateDreamNotFound(t *testing.T) {
	env := newDreamTestEnv(t)

	w := env.do(t, "PATCH", "/dreams/"+uuid.NewString(), map[string]interface{}{"isPublic": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDream(t *testing.T) {
	env := newDreamTestEnv(t)
	dream := env.seedDream(t, nil)

	w := env.do(t, "DELETE", "/dreams/"+dream.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/dreams/"+dream.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDreamAbsentIDSucceeds(t *testing.T) {
	env := newDreamTestEnv(t)

	w := env.do(t, "DELETE", "/dreams/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting the same id again is still a success.
	w = env.do(t, "DELETE", "/dreams/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStreamProgressCompletedDream(t *testing.T) {
	env := newDreamTestEnv(t)
	dream := env.seedDream(t, func(d *models.Dream) {
		d.Status = models.DreamStatusCompleted
		d.Progress = models.NewProgress(models.TotalPipelineSteps, models.StepKeyCompleted)
	})

	w := env.do(t, "GET", "/dreams/"+dream.ID.String()+"/progress", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	frames := sseFrames(w.Body.String())
	require.Len(t, frames, 2, "connected frame plus one terminal progress frame")

	assert.True(t, frames[0]["connected"].(bool))
	assert.True(t, frames[1]["completed"].(bool))
	assert.Equal(t, string(models.DreamStatusCompleted), frames[1]["status"])

	progress := frames[1]["progress"].(map[string]interface{})
	assert.EqualValues(t, models.TotalPipelineSteps, progress["currentStep"])
	assert.EqualValues(t, models.TotalPipelineSteps, progress["totalSteps"])
	assert.Equal(t, string(models.StepKeyCompleted), progress["stepKey"])
}

func TestStreamProgressMissingDream(t *testing.T) {
	env := newDreamTestEnv(t)

	start := time.Now()
	w := env.do(t, "GET", "/dreams/"+uuid.NewString()+"/progress", nil)
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, w.Code)
	frames := sseFrames(w.Body.String())
	require.Len(t, frames, 2)
	assert.True(t, frames[0]["connected"].(bool))
	assert.NotEmpty(t, frames[1]["error"])

	// An unknown id closes right after the error frame, without the
	// terminal-frame grace delay.
	assert.Less(t, elapsed, terminalGrace)
}

// sseFrames parses data-only SSE frames, skipping comments.
func sseFrames(body string) []map[string]interface{} {
	var frames []map[string]interface{}
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err == nil {
			frames = append(frames, frame)
		}
	}
	return frames
}
