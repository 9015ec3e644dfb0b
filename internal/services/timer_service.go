package services

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/padsapp/pads-be/internal/access"
	"github.com/padsapp/pads-be/internal/clock"
	"github.com/padsapp/pads-be/internal/models"
	"github.com/padsapp/pads-be/internal/notices"
)

const maxDescriptionLength = 280

// NewTimerParams describes a timer to be created. A zero CountFrom
// means "now"; a future CountFrom is clamped to "now". Suspended
// creates the timer in the stopped state and is invalid for historical
// timers, which must start running so that their eventual stop event
// is meaningful.
type NewTimerParams struct {
	Description  string
	FirstMessage string
	CountFrom    time.Time
	Public       bool
	Historical   bool
	Suspended    bool
}

// TimerServiceProvider defines the interface for timer services.
type TimerServiceProvider interface {
	GetVisibleTimers(actorID int64) ([]models.Timer, error)
	GetTimerByID(actorID, timerID int64) (models.Timer, error)
	GetTimerByPermalink(actorID int64, code string) (models.Timer, error)
	GetHistory(actorID, timerID int64) ([]models.TimerReset, error)
	Elapsed(t models.Timer, history []models.TimerReset) time.Duration
	Create(actorID int64, params NewTimerParams) (models.Timer, error)
	Rename(actorID, timerID int64, description string) error
	Reset(actorID, timerID int64, reason string) error
	Stop(actorID, timerID int64, reason string) error
	Resume(actorID, timerID int64) error
	SetPublic(actorID, timerID int64) error
	SetPrivate(actorID, timerID int64) error
	Delete(actorID, timerID int64) error
}

// TimerService owns timer records and the state machine governing
// them. Every mutating operation checks ownership first, runs in one
// transaction, and appends exactly one history entry on success; a
// failed operation changes nothing.
type TimerService struct {
	db      *sql.DB
	clock   clock.Clock
	notices *notices.Dictionary
}

// NewTimerService creates a new TimerService.
func NewTimerService(db *sql.DB, clk clock.Clock, dict *notices.Dictionary) *TimerService {
	return &TimerService{db: db, clock: clk, notices: dict}
}

const timerColumns = `id, description, creator_user_id, creation_time, count_from_time,
	public, historical, running, permalink_code`

// GetVisibleTimers returns the timers the actor may see: their own
// plus all public ones, newest count-from first. The anonymous actor
// sees only public timers.
func (s *TimerService) GetVisibleTimers(actorID int64) ([]models.Timer, error) {
	rows, err := s.db.Query(`
		SELECT `+timerColumns+` FROM timers
		WHERE public = 1 OR creator_user_id = ?
		ORDER BY count_from_time DESC`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimers(rows)
}

// GetTimerByID returns a single timer by id, scoped to the actor's
// accessible set. An inaccessible id reads as not found.
func (s *TimerService) GetTimerByID(actorID, timerID int64) (models.Timer, error) {
	row := s.db.QueryRow(`
		SELECT `+timerColumns+` FROM timers
		WHERE id = ? AND (public = 1 OR creator_user_id = ?)`, timerID, actorID)
	return scanTimer(row)
}

// GetTimerByPermalink returns a single timer by its permalink code,
// with the same scoping as GetTimerByID.
func (s *TimerService) GetTimerByPermalink(actorID int64, code string) (models.Timer, error) {
	row := s.db.QueryRow(`
		SELECT `+timerColumns+` FROM timers
		WHERE permalink_code = ? AND (public = 1 OR creator_user_id = ?)`, code, actorID)
	return scanTimer(row)
}

// GetHistory returns a timer's reset history, newest entry first.
func (s *TimerService) GetHistory(actorID, timerID int64) ([]models.TimerReset, error) {
	if _, err := s.GetTimerByID(actorID, timerID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT id, timer_id, occurred_at, reason FROM timer_resets
		WHERE timer_id = ? ORDER BY occurred_at DESC`, timerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TimerReset
	for rows.Next() {
		var e models.TimerReset
		if err := rows.Scan(&e.ID, &e.TimerID, &e.OccurredAt, &e.Reason); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Elapsed computes the timer's displayed duration. A running timer
// shows time since its count-from instant. A stopped timer's display
// freezes at the length of the run that was just ended: the gap
// between its two most recent history entries, not the time since it
// was stopped. history must be sorted newest first.
func (s *TimerService) Elapsed(t models.Timer, history []models.TimerReset) time.Duration {
	if t.Running {
		return s.clock.Now().Sub(t.CountFromTime)
	}
	if len(history) < 2 {
		return 0
	}
	return history[0].OccurredAt.Sub(history[1].OccurredAt)
}

// Create makes a new timer owned by the actor, with one history entry
// marking its creation.
func (s *TimerService) Create(actorID int64, params NewTimerParams) (models.Timer, error) {
	if actorID == access.AnonymousID {
		return models.Timer{}, ErrNotFound
	}
	if blank(params.Description) || len(params.Description) > maxDescriptionLength {
		return models.Timer{}, ErrInvalidInput
	}
	// A historical timer's count-from instant is frozen at creation,
	// so creating one already stopped is a contradiction.
	if params.Historical && params.Suspended {
		return models.Timer{}, ErrInvalidInput
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", actorID).Scan(&exists); err != nil {
		return models.Timer{}, err
	}
	if exists == 0 {
		return models.Timer{}, ErrNotFound
	}

	// Capture "now" once, before the clamp, so a timer can never start
	// counting from the future.
	now := s.clock.Now()
	countFrom := params.CountFrom
	if countFrom.IsZero() || countFrom.After(now) {
		countFrom = now
	}

	firstMessage := params.FirstMessage
	if blank(firstMessage) {
		firstMessage = s.notices.Render(notices.TimerCreated)
	}

	timer := models.Timer{
		Description:   params.Description,
		CreatorUserID: actorID,
		CreationTime:  now,
		CountFromTime: countFrom,
		Public:        params.Public,
		Historical:    params.Historical,
		Running:       !params.Suspended,
		PermalinkCode: uuid.NewString(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Timer{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO timers (description, creator_user_id, creation_time, count_from_time,
			public, historical, running, permalink_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		timer.Description, timer.CreatorUserID, timer.CreationTime, timer.CountFromTime,
		timer.Public, timer.Historical, timer.Running, timer.PermalinkCode)
	if err != nil {
		return models.Timer{}, err
	}
	if timer.ID, err = res.LastInsertId(); err != nil {
		return models.Timer{}, err
	}
	if err := appendHistory(tx, timer.ID, now, firstMessage); err != nil {
		return models.Timer{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Timer{}, err
	}
	return timer, nil
}

// Rename changes a timer's description. On a running or suspended
// timer this also resets it: the count-from instant advances to now
// and the timer is set running. A historical timer may be renamed, but
// its count-from instant and running flag stay frozen. Either way one
// history entry records the change.
func (s *TimerService) Rename(actorID, timerID int64, description string) error {
	if blank(description) || len(description) > maxDescriptionLength {
		return ErrInvalidInput
	}
	return s.mutate(actorID, timerID, func(tx *sql.Tx, t models.Timer, now time.Time) (string, error) {
		reason := s.notices.Render(notices.TimerRenamed, description)
		if t.Historical {
			_, err := tx.Exec("UPDATE timers SET description = ? WHERE id = ?", description, t.ID)
			return reason, err
		}
		_, err := tx.Exec(`
			UPDATE timers SET description = ?, count_from_time = ?, running = 1 WHERE id = ?`,
			description, now, t.ID)
		return reason, err
	})
}

// Reset restarts a timer's count from now. A reset always (re)starts
// the timer. Historical timers can never be reset.
func (s *TimerService) Reset(actorID, timerID int64, reason string) error {
	if blank(reason) {
		return ErrInvalidInput
	}
	return s.mutate(actorID, timerID, func(tx *sql.Tx, t models.Timer, now time.Time) (string, error) {
		if t.Historical {
			return "", ErrStateDenied
		}
		_, err := tx.Exec("UPDATE timers SET count_from_time = ?, running = 1 WHERE id = ?", now, t.ID)
		return s.notices.Render(notices.TimerReset, reason), err
	})
}

// Stop halts a timer without touching its count-from instant. A
// non-historical timer is suspended and can be resumed; a historical
// timer is stopped for good, and the differing history message says
// so.
func (s *TimerService) Stop(actorID, timerID int64, reason string) error {
	if blank(reason) {
		return ErrInvalidInput
	}
	return s.mutate(actorID, timerID, func(tx *sql.Tx, t models.Timer, now time.Time) (string, error) {
		key := notices.TimerSuspended
		if t.Historical {
			key = notices.TimerStopped
		}
		_, err := tx.Exec("UPDATE timers SET running = 0 WHERE id = ?", t.ID)
		return s.notices.Render(key, reason), err
	})
}

// Resume restarts a suspended timer. Resuming resets the count-from
// instant to now. Historical timers, once stopped, never resume.
func (s *TimerService) Resume(actorID, timerID int64) error {
	return s.mutate(actorID, timerID, func(tx *sql.Tx, t models.Timer, now time.Time) (string, error) {
		if t.Historical || t.Running {
			return "", ErrStateDenied
		}
		_, err := tx.Exec("UPDATE timers SET count_from_time = ?, running = 1 WHERE id = ?", now, t.ID)
		return s.notices.Render(notices.TimerResumed), err
	})
}

// SetPublic shares the timer. No history entry is written and the
// count is untouched.
func (s *TimerService) SetPublic(actorID, timerID int64) error {
	return s.setPublicFlag(actorID, timerID, true)
}

// SetPrivate unshares the timer.
func (s *TimerService) SetPrivate(actorID, timerID int64) error {
	return s.setPublicFlag(actorID, timerID, false)
}

func (s *TimerService) setPublicFlag(actorID, timerID int64, public bool) error {
	if actorID == access.AnonymousID {
		return ErrNotFound
	}
	res, err := s.db.Exec(
		"UPDATE timers SET public = ? WHERE id = ? AND creator_user_id = ?",
		public, timerID, actorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a timer, cascading its history entries and group
// inclusions.
func (s *TimerService) Delete(actorID, timerID int64) error {
	if actorID == access.AnonymousID {
		return ErrNotFound
	}
	res, err := s.db.Exec(
		"DELETE FROM timers WHERE id = ? AND creator_user_id = ?", timerID, actorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// mutate runs a state transition: load the timer, check ownership,
// apply the transition and append its history entry, all in one
// transaction. The transition returns the history reason for the
// entry.
func (s *TimerService) mutate(actorID, timerID int64, transition func(tx *sql.Tx, t models.Timer, now time.Time) (string, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+timerColumns+` FROM timers WHERE id = ?`, timerID)
	t, err := scanTimer(row)
	if err != nil {
		return err
	}
	if !access.CanMutate(actorID, t.CreatorUserID) {
		// Indistinguishable from a missing timer.
		return ErrNotFound
	}

	now := s.clock.Now()
	reason, err := transition(tx, t, now)
	if err != nil {
		return err
	}
	if err := appendHistory(tx, t.ID, now, reason); err != nil {
		return err
	}
	return tx.Commit()
}

// appendHistory writes one history entry. The (timer, occurred_at)
// unique constraint means two entries can never share an exact
// instant; a collision fails the whole transaction.
func appendHistory(tx *sql.Tx, timerID int64, at time.Time, reason string) error {
	_, err := tx.Exec(
		"INSERT INTO timer_resets (timer_id, occurred_at, reason) VALUES (?, ?, ?)",
		timerID, at, reason)
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func scanTimers(rows *sql.Rows) ([]models.Timer, error) {
	var timers []models.Timer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}

func scanTimer(scanner interface{ Scan(...interface{}) error }) (models.Timer, error) {
	var t models.Timer
	err := scanner.Scan(
		&t.ID,
		&t.Description,
		&t.CreatorUserID,
		&t.CreationTime,
		&t.CountFromTime,
		&t.Public,
		&t.Historical,
		&t.Running,
		&t.PermalinkCode,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Timer{}, ErrNotFound
		}
		return models.Timer{}, err
	}
	return t, nil
}
