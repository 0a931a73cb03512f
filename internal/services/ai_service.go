// internal/services/ai_service.go
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// AssetStore saves generated image bytes and returns a public URL.
type AssetStore interface {
	SaveImage(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// VisualStepFunc is invoked at the start of each visual sub-step with the
// absolute pipeline step number, its tag, and the visuals produced so far.
// Returning an error aborts visual generation.
type VisualStepFunc func(step int, key models.StepKey, visuals models.VisualList) error

// AIClient is the three-stage dream pipeline: analysis, story expansion, and
// visual generation with per-sub-step progress callbacks.
type AIClient interface {
	AnalyzeDream(ctx context.Context, dreamText string, profile models.ModelProfile) (*models.DreamAnalysis, error)
	GenerateStory(ctx context.Context, dreamText string, analysis *models.DreamAnalysis, profile models.ModelProfile) (*models.DreamStory, error)
	GenerateVisuals(ctx context.Context, analysis *models.DreamAnalysis, story *models.DreamStory, profile models.ModelProfile, onStep VisualStepFunc) (models.VisualList, error)
}

// AIService talks to any OpenAI-compatible chat + image endpoint.
type AIService struct {
	config     *config.Config
	assets     AssetStore
	httpClient *http.Client
}

func NewAIService(cfg *config.Config, assets AssetStore) *AIService {
	return &AIService{
		config: cfg,
		assets: assets,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.AI.TimeoutSecs) * time.Second,
		},
	}
}

const analyzeSystemPrompt = `You are a dream analyst. Given a dream narrative, respond with ONLY a JSON object:
{"title": string, "summary": string, "characters": [string], "world": string,
 "objects": [string], "locations": [string], "tones": [string], "genres": [string], "emotions": [string]}`

const storySystemPrompt = `You are a story writer turning dream analyses into IP-ready stories. Respond with ONLY a JSON object:
{"synopsis": string, "sceneBits": [string], "lore": string}`

const promptsSystemPrompt = `You write image-generation prompts. Given a dream analysis and story, respond with ONLY a JSON object:
{"cover": string, "character": string, "scene": string}`

func (s *AIService) AnalyzeDream(ctx context.Context, dreamText string, profile models.ModelProfile) (*models.DreamAnalysis, error) {
	raw, err := s.chat(ctx, s.modelFor(profile), analyzeSystemPrompt, dreamText)
	if err != nil {
		return nil, fmt.Errorf("dream analysis: %w", err)
	}

	var analysis models.DreamAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("dream analysis: invalid model output: %w", err)
	}
	if analysis.Title == "" {
		return nil, fmt.Errorf("dream analysis: model returned no title")
	}
	return &analysis, nil
}

func (s *AIService) GenerateStory(ctx context.Context, dreamText string, analysis *models.DreamAnalysis, profile models.ModelProfile) (*models.DreamStory, error) {
	userPrompt := fmt.Sprintf("Dream narrative:\n%s\n\nAnalysis:\n%s", dreamText, mustJSON(analysis))
	raw, err := s.chat(ctx, s.modelFor(profile), storySystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("story generation: %w", err)
	}

	var story models.DreamStory
	if err := json.Unmarshal([]byte(extractJSON(raw)), &story); err != nil {
		return nil, fmt.Errorf("story generation: invalid model output: %w", err)
	}
	if story.Synopsis == "" {
		return nil, fmt.Errorf("story generation: model returned no synopsis")
	}
	return &story, nil
}

// GenerateVisuals runs the four visual sub-steps (pipeline steps 3 through 6):
// prompt writing, then cover, character, and scene art. onStep fires before
// each sub-step so the caller can checkpoint progress.
func (s *AIService) GenerateVisuals(ctx context.Context, analysis *models.DreamAnalysis, story *models.DreamStory, profile models.ModelProfile, onStep VisualStepFunc) (models.VisualList, error) {
	visuals := models.VisualList{}

	if err := onStep(3, models.StepKeyGeneratingPrompts, visuals); err != nil {
		return nil, err
	}
	userPrompt := fmt.Sprintf("Analysis:\n%s\n\nStory:\n%s", mustJSON(analysis), mustJSON(story))
	raw, err := s.chat(ctx, s.modelFor(profile), promptsSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("visual prompts: %w", err)
	}
	var prompts struct {
		Cover     string `json:"cover"`
		Character string `json:"character"`
		Scene     string `json:"scene"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &prompts); err != nil {
		return nil, fmt.Errorf("visual prompts: invalid model output: %w", err)
	}

	subSteps := []struct {
		step   int
		key    models.StepKey
		kind   string
		prompt string
	}{
		{4, models.StepKeyGeneratingCoverArt, "cover", prompts.Cover},
		{5, models.StepKeyGeneratingCharacterArt, "character", prompts.Character},
		{6, models.StepKeyGeneratingSceneArt, "scene", prompts.Scene},
	}

	for _, sub := range subSteps {
		if err := onStep(sub.step, sub.key, visuals); err != nil {
			return nil, err
		}

		data, err := s.generateImage(ctx, sub.prompt)
		if err != nil {
			return nil, fmt.Errorf("%s art: %w", sub.kind, err)
		}

		key := fmt.Sprintf("visuals/%s/%s.png", sub.kind, uuid.New().String())
		url, err := s.assets.SaveImage(ctx, key, data, "image/png")
		if err != nil {
			return nil, fmt.Errorf("%s art upload: %w", sub.kind, err)
		}

		visuals = append(visuals, models.Visual{
			Kind:   sub.kind,
			Prompt: sub.prompt,
			URL:    url,
		})
	}

	return visuals, nil
}

func (s *AIService) modelFor(profile models.ModelProfile) string {
	if profile == models.ModelProfilePremium {
		return s.config.AI.PremiumModel
	}
	return s.config.AI.StandardModel
}

// chat calls the OpenAI-compatible /chat/completions endpoint.
func (s *AIService) chat(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	reqBody := oaiChatRequest{
		Model: model,
		Messages: []oaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	var chatResp oaiChatResponse
	if err := s.postJSON(ctx, "/chat/completions", reqBody, &chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from chat api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from chat api")
	}
	return text, nil
}

// generateImage calls the OpenAI-compatible /images/generations endpoint and
// returns the decoded PNG bytes.
func (s *AIService) generateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := oaiImageRequest{
		Model:          s.config.AI.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: "b64_json",
	}

	var imgResp oaiImageResponse
	if err := s.postJSON(ctx, "/images/generations", reqBody, &imgResp); err != nil {
		return nil, err
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("empty response from image api")
	}
	return base64.StdEncoding.DecodeString(imgResp.Data[0].B64JSON)
}

func (s *AIService) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(s.config.AI.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.AI.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.AI.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("ai api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("ai api error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai decode: %w", err)
	}
	return nil
}

// extractJSON strips markdown code fences some models wrap around JSON output.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model    string       `json:"model"`
	Messages []oaiMessage `json:"messages"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type oaiImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
