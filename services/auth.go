package services

import (
	"context"
	"encoding/json"

	"auto-uc2-dashboard/api"
)

type Auth struct {
	d Deps
}

func NewAuth(d Deps) *Auth {
	return &Auth{d: d.withDefaults()}
}

func (s *Auth) Login(ctx context.Context, email, password string) (Grant, error) {
	if err := required([2]string{"email", email}, [2]string{"password", password}); err != nil {
		return Grant{}, err
	}
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var body json.RawMessage
	if err := s.d.API.Post(ctx, "/auth/login", req, &body); err != nil {
		return Grant{}, err
	}
	return decodeGrant(body)
}

// Logout tells the backend to end the session. A 401 means it already has.
func (s *Auth) Logout(ctx context.Context) error {
	err := s.d.API.Post(ctx, "/auth/logout", nil, nil)
	if api.IsUnauthorized(err) {
		return nil
	}
	return err
}
