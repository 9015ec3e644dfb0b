package services

import (
	"database/sql"
	"strings"

	"github.com/padsapp/pads-be/internal/access"
	"github.com/padsapp/pads-be/internal/models"
)

const maxGroupNameLength = 64

// GroupServiceProvider defines the interface for timer group services.
type GroupServiceProvider interface {
	NewGroup(actorID int64, name string) (models.TimerGroup, error)
	DeleteGroup(actorID, groupID int64) error
	AddToGroup(actorID, timerID, groupID int64) error
	RemoveFromGroup(actorID, timerID, groupID int64) error
	GetGroupsForUser(actorID int64) ([]models.TimerGroup, error)
	GetGroupByID(actorID, groupID int64) (models.TimerGroup, error)
	GetTimersInGroup(actorID, groupID int64) ([]models.Timer, error)
}

// GroupService owns timer groups and the timer-group inclusion
// relation. Ownership of the group, not the timer, gates adding and
// removing: a user may file any timer, including another user's
// private one, into their own groups.
type GroupService struct {
	db *sql.DB
}

// NewGroupService creates a new GroupService.
func NewGroupService(db *sql.DB) *GroupService {
	return &GroupService{db: db}
}

// NewGroup creates a group owned by the actor. Names are single-line:
// trailing whitespace and newlines are stripped, and names are stored
// lower-cased. A user may only have one group of a given name.
func (s *GroupService) NewGroup(actorID int64, name string) (models.TimerGroup, error) {
	if actorID == access.AnonymousID {
		return models.TimerGroup{}, ErrNotFound
	}
	name = strings.ToLower(strings.TrimRight(name, " \n\r\t"))
	if blank(name) || len(name) > maxGroupNameLength {
		return models.TimerGroup{}, ErrInvalidInput
	}

	res, err := s.db.Exec(
		"INSERT INTO timer_groups (name, creator_user_id) VALUES (?, ?)", name, actorID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.TimerGroup{}, ErrConflict
		}
		return models.TimerGroup{}, err
	}
	group := models.TimerGroup{Name: name, CreatorUserID: actorID}
	if group.ID, err = res.LastInsertId(); err != nil {
		return models.TimerGroup{}, err
	}
	return group, nil
}

// DeleteGroup removes a group. Only its creator may delete it. The
// group's inclusions cascade away; the timers themselves are kept.
func (s *GroupService) DeleteGroup(actorID, groupID int64) error {
	if actorID == access.AnonymousID {
		return ErrNotFound
	}
	res, err := s.db.Exec(
		"DELETE FROM timer_groups WHERE id = ? AND creator_user_id = ?", groupID, actorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToGroup files a timer into one of the actor's own groups.
func (s *GroupService) AddToGroup(actorID, timerID, groupID int64) error {
	if _, err := s.GetGroupByID(actorID, groupID); err != nil {
		return err
	}
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM timers WHERE id = ?", timerID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	_, err := s.db.Exec(
		"INSERT INTO group_inclusions (timer_id, group_id) VALUES (?, ?)", timerID, groupID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// RemoveFromGroup takes a timer out of one of the actor's own groups.
// Removing a timer that is not in the group reads as not found.
func (s *GroupService) RemoveFromGroup(actorID, timerID, groupID int64) error {
	if _, err := s.GetGroupByID(actorID, groupID); err != nil {
		return err
	}
	res, err := s.db.Exec(
		"DELETE FROM group_inclusions WHERE timer_id = ? AND group_id = ?", timerID, groupID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetGroupsForUser returns all of the actor's groups, by name.
func (s *GroupService) GetGroupsForUser(actorID int64) ([]models.TimerGroup, error) {
	rows, err := s.db.Query(`
		SELECT id, name, creator_user_id FROM timer_groups
		WHERE creator_user_id = ? ORDER BY name`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.TimerGroup
	for rows.Next() {
		var g models.TimerGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorUserID); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroupByID returns one of the actor's own groups. Another user's
// group id reads as not found.
func (s *GroupService) GetGroupByID(actorID, groupID int64) (models.TimerGroup, error) {
	if actorID == access.AnonymousID {
		return models.TimerGroup{}, ErrNotFound
	}
	var g models.TimerGroup
	err := s.db.QueryRow(`
		SELECT id, name, creator_user_id FROM timer_groups
		WHERE id = ? AND creator_user_id = ?`, groupID, actorID).
		Scan(&g.ID, &g.Name, &g.CreatorUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.TimerGroup{}, ErrNotFound
		}
		return models.TimerGroup{}, err
	}
	return g, nil
}

// GetTimersInGroup returns the timers in one of the actor's groups
// that the actor may see. A privately shared timer filed into the
// group by its owner stays hidden from everyone else.
func (s *GroupService) GetTimersInGroup(actorID, groupID int64) ([]models.Timer, error) {
	if _, err := s.GetGroupByID(actorID, groupID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT t.id, t.description, t.creator_user_id, t.creation_time, t.count_from_time,
			t.public, t.historical, t.running, t.permalink_code
		FROM timers t
		JOIN group_inclusions gi ON gi.timer_id = t.id
		WHERE gi.group_id = ? AND (t.public = 1 OR t.creator_user_id = ?)
		ORDER BY t.count_from_time DESC`, groupID, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimers(rows)
}
