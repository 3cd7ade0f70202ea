package services

import (
	"context"
	"net/http"

	"auto-uc2-dashboard/models"
)

const agenciesCacheKey = "agencies:"

// Agencies covers the admin agency directory and the kiosks nested under each agency.
type Agencies struct {
	d Deps
}

func NewAgencies(d Deps) *Agencies {
	return &Agencies{d: d.withDefaults()}
}

func (s *Agencies) List(ctx context.Context) ([]models.Agency, error) {
	return list(ctx, s.d, agenciesCacheKey+"list", "/admin/agencies", "agencies", normalizeAgency)
}

func (s *Agencies) Get(ctx context.Context, id string) (models.Agency, error) {
	return item(ctx, s.d, http.MethodGet, path("admin", "agencies", id), nil, "agency", normalizeAgency)
}

func (s *Agencies) Create(ctx context.Context, in models.AgencyInput) (models.Agency, error) {
	if err := required([2]string{"name", in.Name}); err != nil {
		return models.Agency{}, err
	}
	a, err := item(ctx, s.d, http.MethodPost, "/admin/agencies", in, "agency", normalizeAgency)
	if err == nil {
		s.d.invalidate(ctx, agenciesCacheKey)
	}
	return a, err
}

func (s *Agencies) Update(ctx context.Context, id string, in models.AgencyInput) (models.Agency, error) {
	if err := required([2]string{"name", in.Name}); err != nil {
		return models.Agency{}, err
	}
	a, err := item(ctx, s.d, http.MethodPut, path("admin", "agencies", id), in, "agency", normalizeAgency)
	if err == nil {
		s.d.invalidate(ctx, agenciesCacheKey)
	}
	return a, err
}

func (s *Agencies) Delete(ctx context.Context, id string, confirmed bool) error {
	return s.d.remove(ctx, "agencies", path("admin", "agencies", id), id, confirmed, agenciesCacheKey)
}

func (s *Agencies) Kiosks(ctx context.Context, agencyID string) ([]models.Kiosk, error) {
	kiosks, err := list(ctx, s.d, "", path("admin", "agencies", agencyID, "kiosks"), "kiosks", normalizeKiosk)
	if err != nil {
		return nil, err
	}
	for i := range kiosks {
		if kiosks[i].AgencyID == "" {
			kiosks[i].AgencyID = agencyID
		}
	}
	return kiosks, nil
}

func (s *Agencies) CreateKiosk(ctx context.Context, agencyID string, in models.KioskInput) (models.Kiosk, error) {
	if err := required([2]string{"name", in.Name}); err != nil {
		return models.Kiosk{}, err
	}
	k, err := item(ctx, s.d, http.MethodPost, path("admin", "agencies", agencyID, "kiosks"), in, "kiosk", normalizeKiosk)
	if err == nil && k.AgencyID == "" {
		k.AgencyID = agencyID
	}
	return k, err
}

func (s *Agencies) DeleteKiosk(ctx context.Context, agencyID, kioskID string, confirmed bool) error {
	return s.d.remove(ctx, "kiosks", path("admin", "agencies", agencyID, "kiosks", kioskID), kioskID, confirmed, "")
}
