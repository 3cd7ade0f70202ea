package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auto-uc2-dashboard/models"
)

// GormStore keeps the session in the local database, keyed by profile.
type GormStore struct {
	db      *gorm.DB
	profile string
	logger  *slog.Logger
}

func NewGormStore(db *gorm.DB, profile string, logger *slog.Logger) *GormStore {
	if profile == "" {
		profile = "default"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GormStore{db: db, profile: profile, logger: logger}
}

// Load returns ErrNoSession when no token is stored. A record whose user
// document cannot be decoded is dropped.
func (s *GormStore) Load(ctx context.Context) (Session, error) {
	var rec models.SessionRecord
	err := s.db.WithContext(ctx).Where("profile = ?", s.profile).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if rec.Token == "" {
		return Session{}, ErrNoSession
	}
	var user models.User
	if err := json.Unmarshal([]byte(rec.UserJSON), &user); err != nil {
		s.logger.Warn("dropping corrupt session record", slog.String("profile", s.profile), slog.Any("error", err))
		if err := s.Clear(ctx); err != nil {
			return Session{}, err
		}
		return Session{}, ErrNoSession
	}
	return Session{Token: rec.Token, User: user}, nil
}

func (s *GormStore) Save(ctx context.Context, sess Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	rec := models.SessionRecord{Profile: s.profile, UserJSON: string(userJSON), Token: sess.Token}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_json", "token", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("profile = ?", s.profile).Delete(&models.SessionRecord{}).Error; err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *GormStore) SavedVehicles(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.SavedVehicle{}).
		Where("profile = ?", s.profile).
		Order("saved_at ASC").
		Pluck("vehicle_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list saved vehicles: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *GormStore) ToggleSavedVehicle(ctx context.Context, id string) (bool, error) {
	saved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("profile = ? AND vehicle_id = ?", s.profile, id).Delete(&models.SavedVehicle{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		saved = true
		return tx.Create(&models.SavedVehicle{Profile: s.profile, VehicleID: id}).Error
	})
	if err != nil {
		return false, fmt.Errorf("toggle saved vehicle %s: %w", id, err)
	}
	return saved, nil
}
