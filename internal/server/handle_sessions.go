package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acapella/riskhunt/internal/game"
	"github.com/acapella/riskhunt/internal/riskhunt"
)

type StartSessionRequest struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	TeamName   string `json:"teamName"`
}

type SessionResponse struct {
	ID                   string                 `json:"id"`
	GameID               string                 `json:"gameId"`
	PlayerName           string                 `json:"playerName"`
	TeamName             string                 `json:"teamName,omitempty"`
	Status               riskhunt.SessionStatus `json:"status"`
	EndReason            riskhunt.EndReason     `json:"endReason,omitempty"`
	Score                int                    `json:"score"`
	ClicksUsed           int                    `json:"clicksUsed"`
	ClicksRemaining      int                    `json:"clicksRemaining"`
	MaxClicks            int                    `json:"maxClicks"`
	TargetRisks          int                    `json:"targetRisks"`
	FoundRisks           []game.FoundRisk       `json:"foundRisks"`
	TimeLimitSeconds     int                    `json:"timeLimitSeconds"`
	TimeRemainingSeconds int                    `json:"timeRemainingSeconds"`
	ImageIDs             []string               `json:"imageIds"`
	CurrentImage         int                    `json:"currentImage"`
	CurrentImageID       string                 `json:"currentImageId"`
	StartedAt            time.Time              `json:"startedAt"`
	CompletedAt          *time.Time             `json:"completedAt,omitempty"`
}

type ClickRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func toSessionResponse(s game.Session) SessionResponse {
	ids := make([]string, len(s.Images))
	for i, img := range s.Images {
		ids[i] = img.ImageID
	}
	found := s.FoundRisks
	if found == nil {
		found = []game.FoundRisk{}
	}
	return SessionResponse{
		ID:                   s.ID,
		GameID:               s.GameID,
		PlayerName:           s.PlayerName,
		TeamName:             s.TeamName,
		Status:               s.Status,
		EndReason:            s.EndReason,
		Score:                s.Score,
		ClicksUsed:           s.ClicksUsed,
		ClicksRemaining:      s.ClicksRemaining(),
		MaxClicks:            s.MaxClicks,
		TargetRisks:          s.TargetRisks,
		FoundRisks:           found,
		TimeLimitSeconds:     s.TimeLimitSeconds,
		TimeRemainingSeconds: s.TimeRemainingSeconds,
		ImageIDs:             ids,
		CurrentImage:         s.CurrentImage,
		CurrentImageID:       s.CurrentImageID(),
		StartedAt:            s.StartedAt,
		CompletedAt:          s.CompletedAt,
	}
}

func handleStartSession(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartSessionRequest
		if err := readBody(r, &req); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if req.GameID == "" {
			writeError(w, http.StatusBadRequest, "gameId is required")
			return
		}

		s, err := sessions.StartSession(r.Context(), req.GameID, req.PlayerName, req.TeamName)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(s))
	}
}

func handleGetSession(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}

func handleClick(clicks game.ClickSubmitter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClickRequest
		if err := readBody(r, &req); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if req.X == nil || req.Y == nil {
			writeDomainError(w, logger, fmt.Errorf("%w: x and y are required", riskhunt.ErrValidation))
			return
		}

		res, err := clicks.SubmitClick(r.Context(), chi.URLParam(r, "sessionID"), *req.X, *req.Y)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleTimeout(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.SubmitTimeout(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}

func handleNextImage(sessions Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.AdvanceImage(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(s))
	}
}
