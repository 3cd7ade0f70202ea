// Package session is the single read/write path for the operator's session
// (user + bearer token) and the locally saved vehicle ids.
package session

import (
	"context"
	"errors"

	"auto-uc2-dashboard/models"
)

// ErrNoSession is returned by Store.Load when nobody is signed in.
var ErrNoSession = errors.New("no session")

type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Store persists the session and saved vehicles of one profile.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	SavedVehicles(ctx context.Context) ([]string, error)
	// ToggleSavedVehicle flips the saved flag of id and returns the new value.
	ToggleSavedVehicle(ctx context.Context, id string) (bool, error)
}
