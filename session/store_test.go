package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"auto-uc2-dashboard/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"gorm":   NewGormStore(newTestDB(t), "test", nil),
		"memory": NewMemoryStore(),
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := st.Load(ctx)
			assert.ErrorIs(t, err, ErrNoSession)

			sess := Session{Token: "tok", User: models.User{ID: "u1", Name: "Bob", Role: models.RoleManager}}
			require.NoError(t, st.Save(ctx, sess))
			sess.Token = "tok2"
			require.NoError(t, st.Save(ctx, sess))

			got, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "tok2", got.Token)
			assert.Equal(t, models.RoleManager, got.User.Role)

			require.NoError(t, st.Clear(ctx))
			_, err = st.Load(ctx)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestStore_ToggleSavedVehicle(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved, err := st.ToggleSavedVehicle(ctx, "v1")
			require.NoError(t, err)
			assert.True(t, saved)
			_, err = st.ToggleSavedVehicle(ctx, "v2")
			require.NoError(t, err)

			saved, err = st.ToggleSavedVehicle(ctx, "v1")
			require.NoError(t, err)
			assert.False(t, saved)

			ids, err := st.SavedVehicles(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"v2"}, ids)
		})
	}
}

func TestGormStore_CorruptUserIsCleared(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.SessionRecord{Profile: "p", UserJSON: "{not json", Token: "tok"}).Error)

	st := NewGormStore(db, "p", nil)
	_, err := st.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	var n int64
	require.NoError(t, db.Model(&models.SessionRecord{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGormStore_ProfilesAreIsolated(t *testing.T) {
	db := newTestDB(t)
	a := NewGormStore(db, "a", nil)
	b := NewGormStore(db, "b", nil)
	require.NoError(t, a.Save(context.Background(), Session{Token: "ta"}))
	_, err := b.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return tok
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	c, err := ParseClaims(signed(t, Claims{UserID: "u1", Role: "admin", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}}))
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.False(t, c.Expired(time.Now()))
	assert.True(t, c.Expired(exp.Add(time.Second)))

	_, err = ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestManager_RestoreDropsExpiredToken(t *testing.T) {
	st := NewMemoryStore()
	expired := signed(t, Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}})
	require.NoError(t, st.Save(context.Background(), Session{Token: expired, User: models.User{ID: "u1"}}))

	m := NewManager(st, nil)
	require.NoError(t, m.Restore(context.Background()))
	_, ok := m.Current()
	assert.False(t, ok)
	assert.Empty(t, m.Token())
	assert.Equal(t, models.RoleGuest, m.Role())
	_, err := st.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_SetAndClearNotify(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	var events []bool
	m.OnChange(func(_ Session, in bool) { events = append(events, in) })

	require.NoError(t, m.Set(context.Background(), Session{Token: "opaque", User: models.User{ID: "u1", Role: "Admin"}}))
	assert.Equal(t, "opaque", m.Token())
	assert.Equal(t, models.RoleAdmin, m.Role())

	require.NoError(t, m.Restore(context.Background()))
	assert.Equal(t, "opaque", m.Token(), "opaque tokens are kept")

	require.NoError(t, m.Clear(context.Background()))
	assert.Empty(t, m.Token())
	assert.Equal(t, []bool{true, false}, events)
}
