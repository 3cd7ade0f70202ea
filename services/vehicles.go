package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"auto-uc2-dashboard/models"
)

const vehiclesCacheKey = "vehicles:"

type Vehicles struct {
	d Deps
}

func NewVehicles(d Deps) *Vehicles {
	return &Vehicles{d: d.withDefaults()}
}

func (s *Vehicles) List(ctx context.Context) ([]models.Vehicle, error) {
	return list(ctx, s.d, vehiclesCacheKey+"list", "/vehicles", "vehicles", normalizeVehicle)
}

func (s *Vehicles) Get(ctx context.Context, id string) (models.Vehicle, error) {
	return item(ctx, s.d, http.MethodGet, path("vehicles", id), nil, "vehicle", normalizeVehicle)
}

// Search queries the inventory by free text. An empty query lists everything.
func (s *Vehicles) Search(ctx context.Context, query string) ([]models.Vehicle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	return list(ctx, s.d, "", "/vehicles/search?query="+url.QueryEscape(query), "vehicles", normalizeVehicle)
}

func validateVehicle(in models.VehicleInput) error {
	if err := required([2]string{"make", in.Brand}, [2]string{"model", in.Model}); err != nil {
		return err
	}
	if in.Year <= 0 || in.Price < 0 {
		return fmt.Errorf("%w: year and price must be positive", ErrValidation)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	return nil
}

func (s *Vehicles) Create(ctx context.Context, in models.VehicleInput) (models.Vehicle, error) {
	if err := validateVehicle(in); err != nil {
		return models.Vehicle{}, err
	}
	v, err := item(ctx, s.d, http.MethodPost, "/vehicles", in, "vehicle", normalizeVehicle)
	if err == nil {
		s.d.invalidate(ctx, vehiclesCacheKey)
	}
	return v, err
}

func (s *Vehicles) Update(ctx context.Context, id string, in models.VehicleInput) (models.Vehicle, error) {
	if err := validateVehicle(in); err != nil {
		return models.Vehicle{}, err
	}
	v, err := item(ctx, s.d, http.MethodPut, path("vehicles", id), in, "vehicle", normalizeVehicle)
	if err == nil {
		s.d.invalidate(ctx, vehiclesCacheKey)
	}
	return v, err
}

// SetStatus moves a vehicle to e.g. maintenance without touching other fields.
func (s *Vehicles) SetStatus(ctx context.Context, id string, status models.VehicleStatus) (models.Vehicle, error) {
	if !status.Valid() {
		return models.Vehicle{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	body := map[string]models.VehicleStatus{"status": status}
	v, err := item(ctx, s.d, http.MethodPut, path("vehicles", id), body, "vehicle", normalizeVehicle)
	if err == nil {
		s.d.invalidate(ctx, vehiclesCacheKey)
	}
	return v, err
}

func (s *Vehicles) Delete(ctx context.Context, id string, confirmed bool) error {
	return s.d.remove(ctx, "vehicles", path("vehicles", id), id, confirmed, vehiclesCacheKey)
}
