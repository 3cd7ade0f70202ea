package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"auto-uc2-dashboard/models"
)

type Clients struct {
	d Deps
}

func NewClients(d Deps) *Clients {
	return &Clients{d: d.withDefaults()}
}

func (s *Clients) List(ctx context.Context) ([]models.Client, error) {
	return list(ctx, s.d, "", "/clients", "clients", normalizeClient)
}

// Search matches clients by name, email or phone. An empty query lists everything.
func (s *Clients) Search(ctx context.Context, query string) ([]models.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	return list(ctx, s.d, "", "/clients/search?query="+url.QueryEscape(query), "clients", normalizeClient)
}

func validateClient(in models.ClientInput) error {
	return required([2]string{"firstName", in.FirstName}, [2]string{"lastName", in.LastName}, [2]string{"email", in.Email})
}

func (s *Clients) Create(ctx context.Context, in models.ClientInput) (models.Client, error) {
	if err := validateClient(in); err != nil {
		return models.Client{}, err
	}
	return item(ctx, s.d, http.MethodPost, "/clients", in, "client", normalizeClient)
}

func (s *Clients) Update(ctx context.Context, id string, in models.ClientInput) (models.Client, error) {
	if err := validateClient(in); err != nil {
		return models.Client{}, err
	}
	return item(ctx, s.d, http.MethodPut, path("clients", id), in, "client", normalizeClient)
}

func (s *Clients) Delete(ctx context.Context, id string, confirmed bool) error {
	return s.d.remove(ctx, "clients", path("clients", id), id, confirmed, "")
}
