package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/models"
)

const (
	overviewVehicles = 4
	systemActor      = "System"
	openDiscussion   = "Discussion ouverte"
)

// Dashboard reads the landing page: headline counters, the activity feed and
// a few inventory highlights.
type Dashboard struct {
	d        Deps
	vehicles *Vehicles
}

func NewDashboard(d Deps) *Dashboard {
	d = d.withDefaults()
	return &Dashboard{d: d, vehicles: NewVehicles(d)}
}

type wireActivity struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
	Client  ref    `json:"client"`
	Vehicle struct {
		Make  string `json:"make"`
		Brand string `json:"brand"`
		Model string `json:"model"`
	} `json:"vehicle"`
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func normalizeActivity(w wireActivity) models.Activity {
	a := models.Activity{
		ID:          firstNonEmpty(w.MongoID, w.ID),
		ClientName:  w.Client.participant().Name,
		Vehicle:     strings.TrimSpace(firstNonEmpty(w.Vehicle.Make, w.Vehicle.Brand) + " " + w.Vehicle.Model),
		LastMessage: openDiscussion,
		UpdatedAt:   w.UpdatedAt,
	}
	if a.ClientName == "" {
		a.ClientName = systemActor
	}
	if n := len(w.Messages); n > 0 {
		a.LastMessage = w.Messages[n-1].Content
	}
	return a
}

// Overview fetches the counters and activity feed. The inventory highlights
// are best effort: a failing vehicles call leaves them empty.
func (s *Dashboard) Overview(ctx context.Context) (models.DashboardOverview, error) {
	var body json.RawMessage
	if err := s.d.API.Get(ctx, "/dashboard/overview", &body); err != nil {
		return models.DashboardOverview{}, err
	}
	var out models.DashboardOverview
	if raw, ok := api.Lookup(body, "stats"); ok {
		if err := json.Unmarshal(raw, &out.Stats); err != nil {
			return models.DashboardOverview{}, fmt.Errorf("decode overview stats: %w", err)
		}
	}
	ws, err := api.Collection[wireActivity](body, "recentActivity")
	if err != nil {
		return models.DashboardOverview{}, err
	}
	out.RecentActivity = normalizeAll(ws, normalizeActivity)

	vs, err := s.vehicles.List(ctx)
	if err != nil {
		s.d.Logger.Warn("overview vehicles unavailable", slog.Any("error", err))
		vs = nil
	}
	if len(vs) > overviewVehicles {
		vs = vs[:overviewVehicles]
	}
	out.Vehicles = append([]models.Vehicle{}, vs...)
	return out, nil
}
