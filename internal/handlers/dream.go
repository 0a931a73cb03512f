// internal/handlers/dream.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/i18n"
	"github.com/dreamweave/dreamweave-backend/internal/jobs"
	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/services"
	"github.com/dreamweave/dreamweave-backend/internal/store"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

const (
	progressPollInterval = 1 * time.Second
	keepaliveInterval    = 30 * time.Second
	// terminalGrace keeps the stream open briefly after the final event so
	// slow proxies deliver it before the connection drops.
	terminalGrace = 500 * time.Millisecond
)

type DreamHandler struct {
	dreams *services.DreamService
	queue  *jobs.Queue
}

func NewDreamHandler(dreams *services.DreamService, queue *jobs.Queue) *DreamHandler {
	return &DreamHandler{dreams: dreams, queue: queue}
}

// CreateDream accepts a dream narrative, persists the initial package, and
// enqueues the generation pipeline. Responds 202 immediately; progress is
// observable via GetDream and StreamProgress.
func (h *DreamHandler) CreateDream(c *gin.Context) {
	var req services.CreateDreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	if req.UserID == "" {
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			req.UserID = userID
		}
	}
	if req.CreatorAddress == "" {
		if wallet, ok := utils.GetWalletFromContext(c); ok {
			req.CreatorAddress = wallet
		}
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	dream, err := h.dreams.CreateDream(c.Request.Context(), &req)
	if err != nil {
		logrus.WithError(err).Error("Failed to create dream")
		utils.InternalErrorResponse(c, nil)
		return
	}

	job := jobs.Job{
		DreamID:   dream.ID,
		DreamText: dream.DreamText,
		Model:     dream.Model,
	}
	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		logrus.WithError(err).WithField("dream_id", dream.ID).Error("Failed to enqueue pipeline job")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.AcceptedResponse(c, gin.H{
		"dreamId": dream.ID,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyDreamCreated),
	})
}

// ListDreams returns all dreams newest-first; ?public=true narrows to the
// public gallery.
func (h *DreamHandler) ListDreams(c *gin.Context) {
	publicOnly := c.Query("public") == "true"

	dreams, total, err := h.dreams.ListDreams(c.Request.Context(), publicOnly)
	if err != nil {
		logrus.WithError(err).Error("Failed to list dreams")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"dreams": dreams,
		"total":  total,
	})
}

func (h *DreamHandler) GetDream(c *gin.Context) {
	id, ok := h.dreamID(c)
	if !ok {
		return
	}

	dream, err := h.dreams.GetDream(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "dream")
			return
		}
		logrus.WithError(err).Error("Failed to get dream")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"dream": dream})
}

// UpdateDream toggles the only client-mutable field, isPublic.
func (h *DreamHandler) UpdateDream(c *gin.Context) {
	id, ok := h.dreamID(c)
	if !ok {
		return
	}

	var req struct {
		IsPublic *bool `json:"isPublic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	dream, err := h.dreams.SetPublic(c.Request.Context(), id, *req.IsPublic)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "dream")
			return
		}
		logrus.WithError(err).Error("Failed to update dream")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"dream":   dream,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyDreamUpdated),
	})
}

func (h *DreamHandler) DeleteDream(c *gin.Context) {
	id, ok := h.dreamID(c)
	if !ok {
		return
	}

	// Deletes are idempotent: an id that is already gone is still a success.
	if err := h.dreams.DeleteDream(c.Request.Context(), id); err != nil {
		logrus.WithError(err).Error("Failed to delete dream")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyDreamDeleted),
	})
}

// progressFrame is the SSE payload for one checkpoint observation. Terminal
// frames additionally carry completed:true.
type progressFrame struct {
	Progress  models.Progress    `json:"progress"`
	Status    models.DreamStatus `json:"status"`
	Completed bool               `json:"completed,omitempty"`
}

// StreamProgress serves pipeline progress as server-sent events: data-only
// frames, one per checkpoint change, comment keepalives while idle, and the
// stream closes shortly after a terminal frame. Errors after the connection
// is committed are delivered in-band as {error} frames.
func (h *DreamHandler) StreamProgress(c *gin.Context) {
	id, ok := h.dreamID(c)
	if !ok {
		return
	}

	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.InternalErrorResponse(c, "streaming unsupported")
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeFrame := func(payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	writeFrame(gin.H{"connected": true})

	ctx := c.Request.Context()
	var lastSent string

	const (
		streamKeep = iota
		// streamCloseNow ends the stream immediately (unknown id).
		streamCloseNow
		// streamCloseGrace holds the stream open briefly so the terminal
		// frame reaches slow proxies before the connection drops.
		streamCloseGrace
	)

	// emit reads the current checkpoint and sends it if it changed, returning
	// what should happen to the stream.
	emit := func() int {
		dream, err := h.dreams.GetDream(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeFrame(gin.H{"error": "dream not found"})
				return streamCloseNow
			}
			// Transient read failure: report it, keep the stream open.
			logrus.WithError(err).WithField("dream_id", id).Warn("Progress read failed")
			writeFrame(gin.H{"error": "progress temporarily unavailable"})
			return streamKeep
		}

		frame := progressFrame{
			Progress:  dream.Progress,
			Status:    dream.Status,
			Completed: dream.Progress.Terminal(),
		}
		serialized, err := json.Marshal(frame)
		if err != nil {
			return streamKeep
		}
		if string(serialized) != lastSent {
			lastSent = string(serialized)
			writeFrame(frame)
		}
		if frame.Completed {
			return streamCloseGrace
		}
		return streamKeep
	}

	switch emit() {
	case streamCloseNow:
		return
	case streamCloseGrace:
		time.Sleep(terminalGrace)
		return
	}

	poll := time.NewTicker(progressPollInterval)
	defer poll.Stop()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-poll.C:
			switch emit() {
			case streamCloseNow:
				return
			case streamCloseGrace:
				time.Sleep(terminalGrace)
				return
			}
		}
	}
}

func (h *DreamHandler) dreamID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid dream id", nil)
		return uuid.Nil, false
	}
	return id, true
}
