package services

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/padsapp/pads-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRegularAndVerifyPassword(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.CreateRegular("alice", "correcthorse123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.HasSignedIn())
	assert.Equal(t, -time.Second, user.LastLoginAt.Sub(user.SignedUpAt))

	assert.True(t, f.users.VerifyPassword(user.ID, "correcthorse123"))
	assert.False(t, f.users.VerifyPassword(user.ID, "correcthorse123x"))
	assert.False(t, f.users.VerifyPassword(user.ID, ""))
	assert.False(t, f.users.VerifyPassword(user.ID+1, "correcthorse123"))
}

func TestCreateRegularValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw12345678"},
		{"whitespace username", "   \t", "pw12345678"},
		{"over-length username", strings.Repeat("a", maxUsernameLength+1), "pw12345678"},
		{"reserved prefix", models.QuickListUsernamePrefix + " XYZ", "pw12345678"},
		{"reserved prefix lower case", "quick list user abc", "pw12345678"},
		{"blank password", "carol", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.users.CreateRegular(tc.username, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM users"))
}

func TestCreateRegularDuplicateIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.CreateRegular("Alice", "correcthorse123")
	require.NoError(t, err)
	_, err = f.users.CreateRegular("alice", "otherpassword1")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM users"))
}

func TestCreateQuickList(t *testing.T) {
	f := newFixture(t)

	user, composite, err := f.users.CreateQuickList()
	require.NoError(t, err)
	assert.True(t, user.IsQuickList())
	assert.True(t, strings.HasPrefix(user.Username, models.QuickListUsernamePrefix))

	// "{id}-{password}" with segments from the restricted alphabet.
	require.Regexp(t, regexp.MustCompile(`^\d+-[A-Z2-9]+(-[A-Z2-9]+)*$`), composite)
	assert.NotContains(t, composite, "O")
	assert.NotContains(t, composite, "I")
	_, raw, _ := strings.Cut(composite, "-")
	assert.Equal(t, quickListPasswordLength, len(strings.ReplaceAll(raw, "-", "")))

	resolved, err := f.users.ResolveQuickList(composite)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestResolveQuickListUniformFailure(t *testing.T) {
	f := newFixture(t)
	_, composite, err := f.users.CreateQuickList()
	require.NoError(t, err)

	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "12345"},
		{"non-numeric id", "abc-DEFG"},
		{"unknown account", "999999-ABCDEFGH"},
		{"wrong password", strings.SplitN(composite, "-", 2)[0] + "-WRONGPW2"},
		{"missing password", strings.SplitN(composite, "-", 2)[0] + "-"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.users.ResolveQuickList(tc.input)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	id := f.mustUser(t, "alice")

	assert.ErrorIs(t, f.users.ChangePassword(id, "correcthorse123", "  "), ErrInvalidInput)
	assert.ErrorIs(t, f.users.ChangePassword(id, "wrongcurrent", "newpassword1"), ErrNotFound)
	assert.True(t, f.users.VerifyPassword(id, "correcthorse123"))

	require.NoError(t, f.users.ChangePassword(id, "correcthorse123", "newpassword1"))
	assert.True(t, f.users.VerifyPassword(id, "newpassword1"))
	assert.False(t, f.users.VerifyPassword(id, "correcthorse123"))
}

func TestSetTimeZone(t *testing.T) {
	f := newFixture(t)
	id := f.mustUser(t, "alice")

	require.NoError(t, f.users.SetTimeZone(id, "Europe/Berlin"))
	user, err := f.users.GetUserByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", user.TimeZone)

	assert.ErrorIs(t, f.users.SetTimeZone(id, "Mars/Olympus_Mons"), ErrInvalidInput)
	assert.ErrorIs(t, f.users.SetTimeZone(id, ""), ErrInvalidInput)
	user, _ = f.users.GetUserByID(id)
	assert.Equal(t, "Europe/Berlin", user.TimeZone)
}

func TestSetDisplayName(t *testing.T) {
	f := newFixture(t)
	id := f.mustUser(t, "alice")

	assert.ErrorIs(t, f.users.SetDisplayName(id, "  \n"), ErrInvalidInput)
	assert.ErrorIs(t, f.users.SetDisplayName(id, strings.Repeat("x", maxDisplayNameLength+1)), ErrInvalidInput)

	require.NoError(t, f.users.SetDisplayName(id, "Alice B."))
	user, err := f.users.GetUserByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", user.DisplayName)
}

func TestTouchLastLogin(t *testing.T) {
	f := newFixture(t)
	id := f.mustUser(t, "alice")

	f.clock.Advance(time.Hour)
	require.NoError(t, f.users.TouchLastLogin(id))
	user, err := f.users.GetUserByID(id)
	require.NoError(t, err)
	assert.True(t, user.HasSignedIn())
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	id := f.mustUser(t, "alice")
	timerID := f.mustTimer(t, id, NewTimerParams{Description: "desk cleanup"})
	group, err := f.groups.NewGroup(id, "chores")
	require.NoError(t, err)
	require.NoError(t, f.groups.AddToGroup(id, timerID, group.ID))

	require.NoError(t, f.users.Delete(id))

	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM timers"))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM timer_groups"))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM group_inclusions"))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM timer_resets"))

	assert.ErrorIs(t, f.users.Delete(id), ErrNotFound)
}

func TestMerge(t *testing.T) {
	f := newFixture(t)
	sourceID := f.mustUser(t, "source")
	targetID := f.mustUser(t, "target")

	groupedTimer := f.mustTimer(t, sourceID, NewTimerParams{Description: "grouped"})
	f.clock.Advance(time.Second)
	ungroupedTimer := f.mustTimer(t, sourceID, NewTimerParams{Description: "ungrouped"})
	sourceGroup, err := f.groups.NewGroup(sourceID, "old group")
	require.NoError(t, err)
	require.NoError(t, f.groups.AddToGroup(sourceID, groupedTimer, sourceGroup.ID))

	defaultGroup, err := f.groups.NewGroup(targetID, "imported")
	require.NoError(t, err)

	require.NoError(t, f.users.Merge(sourceID, targetID, defaultGroup.ID))

	// Everything the source owned now belongs to the target.
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM timers WHERE creator_user_id = ?", targetID))
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM timer_groups WHERE creator_user_id = ?", targetID))

	// Only the timer with no inclusions lands in the default group.
	assert.Equal(t, 1, f.count(t,
		"SELECT COUNT(*) FROM group_inclusions WHERE timer_id = ? AND group_id = ?",
		ungroupedTimer, defaultGroup.ID))
	assert.Equal(t, 0, f.count(t,
		"SELECT COUNT(*) FROM group_inclusions WHERE timer_id = ? AND group_id = ?",
		groupedTimer, defaultGroup.ID))

	// The source account is gone.
	_, err = f.users.GetUserByID(sourceID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeIsAtomicOnGroupNameConflict(t *testing.T) {
	f := newFixture(t)
	sourceID := f.mustUser(t, "source")
	targetID := f.mustUser(t, "target")

	_, err := f.groups.NewGroup(sourceID, "chores")
	require.NoError(t, err)
	_, err = f.groups.NewGroup(targetID, "chores")
	require.NoError(t, err)
	timerID := f.mustTimer(t, sourceID, NewTimerParams{Description: "t"})

	err = f.users.Merge(sourceID, targetID, 0)
	assert.ErrorIs(t, err, ErrConflict)

	// Nothing moved, nothing deleted.
	_, err = f.users.GetUserByID(sourceID)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM timers WHERE creator_user_id = ?", sourceID))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM timers WHERE creator_user_id = ?", targetID))
	_ = timerID
}
