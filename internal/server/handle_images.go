package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

type ImageRequest struct {
	Name   string           `json:"name"`
	Source string           `json:"source"`
	Zones  riskhunt.ZoneSet `json:"zones"`
}

type ImageResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Source    string           `json:"source"`
	Zones     riskhunt.ZoneSet `json:"zones"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func toImageResponse(img riskhunt.Image) ImageResponse {
	zones := img.Zones
	if zones == nil {
		zones = riskhunt.ZoneSet{}
	}
	return ImageResponse{
		ID:        img.ID,
		Name:      img.Name,
		Source:    img.Source,
		Zones:     zones,
		CreatedAt: img.CreatedAt,
		UpdatedAt: img.UpdatedAt,
	}
}

func handleListImages(images ImageStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := images.ListImages(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		resp := make([]ImageResponse, len(list))
		for i, img := range list {
			resp[i] = toImageResponse(img)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateImage(images ImageStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImageRequest
		if err := readBody(r, &req); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		img, err := images.CreateImage(r.Context(), riskhunt.Image{
			Name:   req.Name,
			Source: req.Source,
			Zones:  req.Zones,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toImageResponse(img))
	}
}

func handleGetImage(images ImageStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := images.GetImage(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toImageResponse(img))
	}
}
