// internal/models/dream.go
package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

// TotalPipelineSteps is the fixed number of generation steps for every dream.
const TotalPipelineSteps = 6

// Progress is the pipeline checkpoint stored on every dream.
type Progress struct {
	CurrentStep int     `json:"currentStep"`
	TotalSteps  int     `json:"totalSteps"`
	StepKey     StepKey `json:"stepKey"`
}

func NewProgress(step int, key StepKey) Progress {
	return Progress{CurrentStep: step, TotalSteps: TotalPipelineSteps, StepKey: key}
}

// Terminal reports whether the checkpoint marks the end of a run.
func (p Progress) Terminal() bool {
	return p.StepKey == StepKeyCompleted || p.StepKey == StepKeyFailed
}

func (p Progress) Value() (driver.Value, error) { return jsonbValue(p) }
func (p *Progress) Scan(value interface{}) error {
	return jsonbScan(p, value)
}

// DreamAnalysis is the structured reading of a dream narrative produced by the
// first pipeline step.
type DreamAnalysis struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Characters []string `json:"characters"`
	World      string   `json:"world"`
	Objects    []string `json:"objects"`
	Locations  []string `json:"locations"`
	Tones      []string `json:"tones"`
	Genres     []string `json:"genres"`
	Emotions   []string `json:"emotions"`
}

func (a DreamAnalysis) Value() (driver.Value, error) { return jsonbValue(a) }
func (a *DreamAnalysis) Scan(value interface{}) error {
	return jsonbScan(a, value)
}

// DreamStory is the narrative expansion produced by the second pipeline step.
type DreamStory struct {
	Synopsis  string   `json:"synopsis"`
	SceneBits []string `json:"sceneBits"`
	Lore      string   `json:"lore"`
}

func (s DreamStory) Value() (driver.Value, error) { return jsonbValue(s) }
func (s *DreamStory) Scan(value interface{}) error {
	return jsonbScan(s, value)
}

// Visual is one generated image asset.
type Visual struct {
	Kind   string `json:"kind"` // cover, character, scene
	Prompt string `json:"prompt"`
	URL    string `json:"url"`
	CID    string `json:"cid,omitempty"`
}

type VisualList []Visual

func (v VisualList) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return jsonbValue(v)
}
func (v *VisualList) Scan(value interface{}) error {
	return jsonbScan(v, value)
}

// Dream is the root IP-package entity. It is created in processing state,
// mutated by the generation pipeline through progress checkpoints, and frozen
// after reaching a terminal status except for the isPublic toggle and the
// ledger fields attached after registration.
type Dream struct {
	BaseModel
	UserID         string         `json:"userId" gorm:"size:100;not null;index"`
	DreamText      string         `json:"dreamText" gorm:"type:text;not null"`
	RecordedAt     time.Time      `json:"recordedAt"`
	Model          ModelProfile   `json:"model" gorm:"type:varchar(20);default:'standard'"`
	Analysis       *DreamAnalysis `json:"analysis,omitempty" gorm:"type:jsonb"`
	Story          *DreamStory    `json:"story,omitempty" gorm:"type:jsonb"`
	Visuals        VisualList     `json:"visuals" gorm:"type:jsonb"`
	ContentHash    string         `json:"contentHash,omitempty" gorm:"size:66"`
	IsPublic       bool           `json:"isPublic" gorm:"default:false;index"`
	Status         DreamStatus    `json:"status" gorm:"type:varchar(20);default:'processing';index"`
	Progress       Progress       `json:"progress" gorm:"type:jsonb"`
	Tags           pq.StringArray `json:"tags" gorm:"type:text[]"`
	CreatorAddress string         `json:"creatorAddress,omitempty" gorm:"size:42;index"`
	IPAssetID      string         `json:"ipAssetId,omitempty" gorm:"size:66;index"`
	OwnerAddress   string         `json:"ownerAddress,omitempty" gorm:"size:42"`
}

// Registered reports whether the dream has been registered on the ledger.
func (d *Dream) Registered() bool {
	return d.IPAssetID != ""
}
