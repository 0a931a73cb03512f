// internal/services/pipeline_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/store"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// PipelineService drives the fixed six-step generation pipeline for one dream:
// analysis (1), story (2), and four visual sub-steps (3-6). A checkpoint is
// persisted after every step so progress survives a crash and is observable
// through the read and stream endpoints.
type PipelineService struct {
	store store.Store
	ai    AIClient
}

func NewPipelineService(st store.Store, ai AIClient) *PipelineService {
	return &PipelineService{store: st, ai: ai}
}

// Run executes the pipeline to a terminal state. Errors never propagate to the
// caller: any step failure marks the dream failed, keeping whatever analysis,
// story, or visuals were already persisted.
func (s *PipelineService) Run(ctx context.Context, dreamID uuid.UUID, dreamText string, profile models.ModelProfile) {
	log := logrus.WithField("dream_id", dreamID)
	log.Info("Dream pipeline started")

	if err := s.run(ctx, dreamID, dreamText, profile); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted mid-run; nothing left to mark.
			log.Warn("Dream removed while pipeline was running, aborting")
			return
		}

		log.WithError(err).Error("Dream pipeline failed")
		failed := models.NewProgress(models.TotalPipelineSteps, models.StepKeyFailed)
		if persistErr := s.store.FailDream(ctx, dreamID, failed); persistErr != nil {
			// A failed terminal write is logged, not escalated; the dream
			// stays in processing until someone looks at it.
			log.WithError(persistErr).Error("Failed to persist failed status")
		}
		return
	}

	log.Info("Dream pipeline completed")
}

func (s *PipelineService) run(ctx context.Context, dreamID uuid.UUID, dreamText string, profile models.ModelProfile) error {
	// Step 1: analysis
	progress := models.NewProgress(1, models.StepKeyAnalyzing)
	if err := s.store.UpdateDreamProgress(ctx, dreamID, progress); err != nil {
		return fmt.Errorf("checkpoint step 1: %w", err)
	}

	analysis, err := s.ai.AnalyzeDream(ctx, dreamText, profile)
	if err != nil {
		return err
	}
	if err := s.store.SetDreamAnalysis(ctx, dreamID, analysis, progress); err != nil {
		return fmt.Errorf("persist analysis: %w", err)
	}

	// Step 2: story
	progress = models.NewProgress(2, models.StepKeyGeneratingStory)
	if err := s.store.UpdateDreamProgress(ctx, dreamID, progress); err != nil {
		return fmt.Errorf("checkpoint step 2: %w", err)
	}

	story, err := s.ai.GenerateStory(ctx, dreamText, analysis, profile)
	if err != nil {
		return err
	}
	if err := s.store.SetDreamStory(ctx, dreamID, story, progress); err != nil {
		return fmt.Errorf("persist story: %w", err)
	}

	// Steps 3-6: visuals, checkpointed per sub-step. The callback re-reads the
	// canonical row first so a dream deleted mid-run aborts the pipeline
	// instead of being resurrected by a checkpoint write.
	visuals, err := s.ai.GenerateVisuals(ctx, analysis, story, profile,
		func(step int, key models.StepKey, soFar models.VisualList) error {
			if _, err := s.store.GetDream(ctx, dreamID); err != nil {
				return err
			}
			return s.store.SetDreamVisuals(ctx, dreamID, soFar, models.NewProgress(step, key))
		})
	if err != nil {
		return err
	}

	contentHash := utils.ContentHash(dreamText, story.Synopsis)
	tags := append(append([]string{}, analysis.Genres...), analysis.Tones...)
	completed := models.NewProgress(models.TotalPipelineSteps, models.StepKeyCompleted)
	if err := s.store.CompleteDream(ctx, dreamID, visuals, contentHash, tags, completed); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}

	return nil
}
