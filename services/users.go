package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/models"
)

type Users struct {
	d Deps
}

func NewUsers(d Deps) *Users {
	return &Users{d: d.withDefaults()}
}

// List returns all users, or only those of agencyID when it is set.
func (s *Users) List(ctx context.Context, agencyID string) ([]models.User, error) {
	endpoint := "/admin/users"
	if agencyID != "" {
		endpoint += "?agency=" + url.QueryEscape(agencyID)
	}
	return list(ctx, s.d, "", endpoint, "users", normalizeUser)
}

func validateUser(in models.UserInput, creating bool) error {
	if err := required([2]string{"name", in.Name}, [2]string{"email", in.Email}); err != nil {
		return err
	}
	if creating && in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if in.Role != "" && models.ParseRole(string(in.Role)) != in.Role {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}
	return nil
}

func (s *Users) Create(ctx context.Context, in models.UserInput) (models.User, error) {
	if err := validateUser(in, true); err != nil {
		return models.User{}, err
	}
	return item(ctx, s.d, http.MethodPost, "/admin/users", in, "user", normalizeUser)
}

func (s *Users) Update(ctx context.Context, id string, in models.UserInput) (models.User, error) {
	if err := validateUser(in, false); err != nil {
		return models.User{}, err
	}
	return item(ctx, s.d, http.MethodPut, path("admin", "users", id), in, "user", normalizeUser)
}

func (s *Users) Delete(ctx context.Context, id string, confirmed bool) error {
	return s.d.remove(ctx, "users", path("admin", "users", id), id, confirmed, "")
}

// Grant is a bearer token together with the user it belongs to.
type Grant struct {
	Token   string
	User    models.User
	Message string
}

// Impersonate asks the backend for a token acting as user id.
func (s *Users) Impersonate(ctx context.Context, id string) (Grant, error) {
	var body json.RawMessage
	if err := s.d.API.Post(ctx, path("admin", "users", id, "impersonate"), nil, &body); err != nil {
		return Grant{}, err
	}
	g, err := decodeGrant(body)
	if err != nil {
		return Grant{}, err
	}
	s.d.Audit.Record(ctx, AuditEvent{Action: "impersonated", Resource: "users", TargetID: id, ActorID: actorFrom(ctx)})
	return g, nil
}

func decodeGrant(body json.RawMessage) (Grant, error) {
	var env api.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Grant{}, fmt.Errorf("decode grant: %w", err)
	}
	w, err := api.Item[wireUser](body, "user")
	if err != nil {
		return Grant{}, err
	}
	token := env.Token
	if token == "" {
		if raw, ok := api.Lookup(body, "token"); ok {
			_ = json.Unmarshal(raw, &token)
		}
	}
	if token == "" {
		return Grant{}, fmt.Errorf("decode grant: response carries no token")
	}
	return Grant{Token: token, User: normalizeUser(w), Message: env.Message}, nil
}
