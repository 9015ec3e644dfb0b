package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/padsapp/pads-be/internal/clock"
	"github.com/padsapp/pads-be/internal/database"
	"github.com/padsapp/pads-be/internal/notices"
	"github.com/stretchr/testify/require"
)

// fakeHasher is a transparent stand-in for the bcrypt hasher so tests
// stay fast. The password package covers the real implementation.
type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }
func (fakeHasher) Verify(pw, hash string) bool    { return hash == "hashed:"+pw }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory
	// database.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	db       *sql.DB
	clock    *clock.Fake
	users    *UserService
	timers   *TimerService
	groups   *GroupService
	importer *ImportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	users := NewUserService(db, fakeHasher{}, clk)
	timers := NewTimerService(db, clk, notices.Default())
	groups := NewGroupService(db)
	return &fixture{
		db:       db,
		clock:    clk,
		users:    users,
		timers:   timers,
		groups:   groups,
		importer: NewImportService(users, groups),
	}
}

func (f *fixture) mustUser(t *testing.T, username string) int64 {
	t.Helper()
	user, err := f.users.CreateRegular(username, "correcthorse123")
	require.NoError(t, err)
	return user.ID
}

func (f *fixture) mustTimer(t *testing.T, actorID int64, params NewTimerParams) int64 {
	t.Helper()
	timer, err := f.timers.Create(actorID, params)
	require.NoError(t, err)
	return timer.ID
}

func (f *fixture) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}
