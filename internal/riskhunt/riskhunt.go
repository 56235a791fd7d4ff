// Package riskhunt defines the core domain types of the risk spotting game.
// Apart from the geometry primitives it has no dependencies.
package riskhunt

import (
	"time"

	"github.com/acapella/riskhunt/internal/geometry"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// RiskZone is one marked hazard on one image.
type RiskZone struct {
	ID          string
	Shape       geometry.Shape
	Description string
	Explanation string
	Difficulty  Difficulty
	Points      int
	Color       string
}

type Image struct {
	ID        string
	Name      string
	Source    string
	Zones     ZoneSet
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	DefaultTimeLimitSeconds = 300
	DefaultMaxClicks        = 17
	DefaultTargetRisks      = 15
)

// GameConfig is the immutable template a session is started from.
type GameConfig struct {
	ID               string
	Name             string
	Description      string
	TimeLimitSeconds int
	MaxClicks        int
	TargetRisks      int
	ImageIDs         []string
	IsPublic         bool
	CreatedAt        time.Time
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// EndReason records which completion condition ended a session.
type EndReason string

const (
	EndTargetReached   EndReason = "target_reached"
	EndClicksExhausted EndReason = "clicks_exhausted"
	EndTimeout         EndReason = "timeout"
)

// GameResult is the final summary handed to the results collaborator.
type GameResult struct {
	ID              string        `json:"id"`
	SessionID       string        `json:"sessionId"`
	GameID          string        `json:"gameId"`
	PlayerName      string        `json:"playerName"`
	TeamName        string        `json:"teamName"`
	TotalScore      int           `json:"totalScore"`
	TotalRisksFound int           `json:"totalRisksFound"`
	TotalTimeSpent  int           `json:"totalTimeSpent"`
	ClicksUsed      int           `json:"clicksUsed"`
	EndReason       EndReason     `json:"endReason"`
	ImageResults    []ImageResult `json:"imageResults"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type ImageResult struct {
	ImageID    string `json:"imageId"`
	RisksFound int    `json:"risksFound"`
	RisksTotal int    `json:"risksTotal"`
}
