// Package game runs play sessions: click scoring, the time and click
// budgets, completion, and serialized access per session.
package game

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

// SessionImage is the zone set of one game image, captured at session start.
type SessionImage struct {
	ImageID string
	Zones   riskhunt.ZoneSet
}

// FoundRisk identifies a claimed zone. Zone ids are only unique within
// their image.
type FoundRisk struct {
	ImageID string `json:"imageId"`
	ZoneID  string `json:"zoneId"`
}

// Session is one player's play-through. Only its own methods mutate it.
type Session struct {
	ID         string
	GameID     string
	PlayerName string
	TeamName   string

	Status    riskhunt.SessionStatus
	EndReason riskhunt.EndReason

	ClicksUsed   int
	MaxClicks    int
	TargetRisks  int
	Score        int
	FoundRisks   []FoundRisk

	TimeLimitSeconds     int
	TimeRemainingSeconds int

	Images       []SessionImage
	CurrentImage int

	StartedAt   time.Time
	CompletedAt *time.Time
}

// ClickResult is what a click submission reports back to the player.
type ClickResult struct {
	Hit             bool                   `json:"hit"`
	Zone            *riskhunt.RiskZone     `json:"riskZone,omitempty"`
	ZoneID          string                 `json:"zoneId,omitempty"`
	ScoreDelta      int                    `json:"scoreDelta"`
	Score           int                    `json:"score"`
	ClicksUsed      int                    `json:"clicksUsed"`
	ClicksRemaining int                    `json:"clicksRemaining"`
	RisksFound      int                    `json:"risksFound"`
	Status          riskhunt.SessionStatus `json:"status"`
	EndReason       riskhunt.EndReason     `json:"endReason,omitempty"`
	Debounced       bool                   `json:"debounced,omitempty"`
}

// Start creates an Active session from cfg. images must follow cfg.ImageIDs.
func Start(id string, cfg riskhunt.GameConfig, images []SessionImage, playerName, teamName string, now time.Time) (*Session, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", riskhunt.ErrValidation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: game %s has no images", riskhunt.ErrValidation, cfg.ID)
	}
	return &Session{
		ID:                   id,
		GameID:               cfg.ID,
		PlayerName:           playerName,
		TeamName:             strings.TrimSpace(teamName),
		Status:               riskhunt.SessionActive,
		MaxClicks:            cfg.MaxClicks,
		TargetRisks:          cfg.TargetRisks,
		FoundRisks:           []FoundRisk{},
		TimeLimitSeconds:     cfg.TimeLimitSeconds,
		TimeRemainingSeconds: cfg.TimeLimitSeconds,
		Images:               images,
		StartedAt:            now,
	}, nil
}

func (s *Session) Active() bool { return s.Status == riskhunt.SessionActive }

func (s *Session) HasFound(imageID, zoneID string) bool {
	return slices.Contains(s.FoundRisks, FoundRisk{ImageID: imageID, ZoneID: zoneID})
}

func (s *Session) ClicksRemaining() int {
	return max(s.MaxClicks-s.ClicksUsed, 0)
}

// CurrentZones returns the zones of the image being played.
func (s *Session) CurrentZones() riskhunt.ZoneSet {
	if s.CurrentImage < 0 || s.CurrentImage >= len(s.Images) {
		return nil
	}
	return s.Images[s.CurrentImage].Zones
}

func (s *Session) CurrentImageID() string {
	if s.CurrentImage < 0 || s.CurrentImage >= len(s.Images) {
		return ""
	}
	return s.Images[s.CurrentImage].ImageID
}

// Click consumes one click of the budget and scores it. Completion is
// checked afterwards: the target first, then the click budget.
func (s *Session) Click(x, y float64, now time.Time) (ClickResult, error) {
	if !s.Active() {
		return ClickResult{}, fmt.Errorf("%w: session %s is %s", riskhunt.ErrInvalidState, s.ID, s.Status)
	}

	s.ClicksUsed++
	ev := Evaluate(s, s.CurrentZones(), x, y)
	if ev.Hit {
		s.FoundRisks = append(s.FoundRisks, FoundRisk{ImageID: s.CurrentImageID(), ZoneID: ev.Zone.ID})
		s.Score += ev.ScoreDelta
	}

	switch {
	case len(s.FoundRisks) >= s.TargetRisks:
		s.complete(riskhunt.EndTargetReached, now)
	case s.ClicksUsed >= s.MaxClicks:
		s.complete(riskhunt.EndClicksExhausted, now)
	}

	res := ClickResult{
		Hit:             ev.Hit,
		Zone:            ev.Zone,
		ScoreDelta:      ev.ScoreDelta,
		Score:           s.Score,
		ClicksUsed:      s.ClicksUsed,
		ClicksRemaining: s.ClicksRemaining(),
		RisksFound:      len(s.FoundRisks),
		Status:          s.Status,
		EndReason:       s.EndReason,
	}
	if ev.Zone != nil {
		res.ZoneID = ev.Zone.ID
	}
	return res, nil
}

// Tick takes one second off the clock and reports whether it ended the
// session. Ticks on a completed session are ignored.
func (s *Session) Tick(now time.Time) bool {
	if !s.Active() {
		return false
	}
	s.TimeRemainingSeconds--
	if s.TimeRemainingSeconds <= 0 {
		s.TimeRemainingSeconds = 0
		s.complete(riskhunt.EndTimeout, now)
		return true
	}
	return false
}

// Timeout forces the timeout path. It reports false if the session had
// already completed.
func (s *Session) Timeout(now time.Time) bool {
	if !s.Active() {
		return false
	}
	s.complete(riskhunt.EndTimeout, now)
	return true
}

// AdvanceImage moves play to the next image of the game.
func (s *Session) AdvanceImage() error {
	if !s.Active() {
		return fmt.Errorf("%w: session %s is %s", riskhunt.ErrInvalidState, s.ID, s.Status)
	}
	if s.CurrentImage >= len(s.Images)-1 {
		return fmt.Errorf("%w: session %s is on its last image", riskhunt.ErrInvalidState, s.ID)
	}
	s.CurrentImage++
	return nil
}

func (s *Session) complete(reason riskhunt.EndReason, now time.Time) {
	if !s.Active() {
		return
	}
	s.Status = riskhunt.SessionCompleted
	s.EndReason = reason
	s.CompletedAt = &now
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() Session {
	c := *s
	c.FoundRisks = slices.Clone(s.FoundRisks)
	c.Images = slices.Clone(s.Images)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		c.CompletedAt = &at
	}
	return c
}

// timeSpent is the larger of the countdown's view and the wall clock,
// capped at the time limit.
func (s *Session) timeSpent() int {
	spent := s.TimeLimitSeconds - s.TimeRemainingSeconds
	if s.CompletedAt != nil {
		wall := int(s.CompletedAt.Sub(s.StartedAt) / time.Second)
		spent = max(spent, min(wall, s.TimeLimitSeconds))
	}
	return spent
}

// Result summarizes a completed session for the results collaborator.
func (s *Session) Result(id string, now time.Time) riskhunt.GameResult {
	res := riskhunt.GameResult{
		ID:              id,
		SessionID:       s.ID,
		GameID:          s.GameID,
		PlayerName:      s.PlayerName,
		TeamName:        s.TeamName,
		TotalScore:      s.Score,
		TotalRisksFound: len(s.FoundRisks),
		TotalTimeSpent:  s.timeSpent(),
		ClicksUsed:      s.ClicksUsed,
		EndReason:       s.EndReason,
		ImageResults:    make([]riskhunt.ImageResult, 0, len(s.Images)),
		CreatedAt:       now,
	}
	for _, img := range s.Images {
		found := 0
		for _, z := range img.Zones {
			if s.HasFound(img.ImageID, z.ID) {
				found++
			}
		}
		res.ImageResults = append(res.ImageResults, riskhunt.ImageResult{
			ImageID:    img.ImageID,
			RisksFound: found,
			RisksTotal: len(img.Zones),
		})
	}
	return res
}
