package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore creates a Store over an in-memory SQLite DB.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func TestStore_CreateHashesPassword(t *testing.T) {
	store := newTestStore(t)

	u := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, store.Create(u, "s3cret-pass"))

	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	assert.Equal(t, RoleUser, u.Role, "role defaults to user")
	assert.True(t, u.Active)
}

func TestStore_Authenticate(t *testing.T) {
	store := newTestStore(t)

	u := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, store.Create(u, "s3cret-pass"))

	got, err := store.Authenticate("alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLogin, "successful login is recorded")

	_, err = store.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.Authenticate("nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStore_Authenticate_InactiveAccount(t *testing.T) {
	store := newTestStore(t)

	u := &User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, store.Create(u, "s3cret-pass"))
	require.NoError(t, store.db.Model(u).Update("active", false).Error)

	_, err := store.Authenticate("bob", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStore_EnsureAdmin(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.EnsureAdmin("admin", "changeme-now"))
	admin, err := store.GetByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, admin.Role)

	// Second call must not create a duplicate or reset the password.
	require.NoError(t, store.EnsureAdmin("admin", "different"))
	_, err = store.Authenticate("admin", "changeme-now")
	assert.NoError(t, err)
}
