// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// jsonbValue marshals a typed document column into its JSONB representation.
func jsonbValue(v interface{}) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// jsonbScan unmarshals a JSONB column into a typed document.
func jsonbScan(dst interface{}, value interface{}) error {
	if value == nil {
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// Enums
type DreamStatus string

const (
	DreamStatusProcessing DreamStatus = "processing"
	DreamStatusCompleted  DreamStatus = "completed"
	DreamStatusFailed     DreamStatus = "failed"
)

type StepKey string

const (
	StepKeyStarting               StepKey = "starting"
	StepKeyAnalyzing              StepKey = "analyzing"
	StepKeyGeneratingStory        StepKey = "generatingStory"
	StepKeyGeneratingPrompts      StepKey = "generatingPrompts"
	StepKeyGeneratingCoverArt     StepKey = "generatingCoverArt"
	StepKeyGeneratingCharacterArt StepKey = "generatingCharacterArt"
	StepKeyGeneratingSceneArt     StepKey = "generatingSceneArt"
	StepKeyCompleted              StepKey = "completed"
	StepKeyFailed                 StepKey = "failed"
)

type ModelProfile string

const (
	ModelProfileStandard ModelProfile = "standard"
	ModelProfilePremium  ModelProfile = "premium"
)
