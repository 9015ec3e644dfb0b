package services

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	// Bundle the zone database so time zone validation works on hosts
	// without a system tzdata installation.
	_ "time/tzdata"

	"github.com/padsapp/pads-be/internal/clock"
	"github.com/padsapp/pads-be/internal/models"
	"github.com/padsapp/pads-be/internal/password"
)

const (
	maxUsernameLength    = 64
	maxDisplayNameLength = 120

	// Visually ambiguous characters (O, 0, 1, I) are omitted so that a
	// Quick List password survives being read off a screen or a note.
	quickListAlphabet         = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	quickListPasswordLength   = 8
	quickListPasswordSegments = 3
	quickListSuffixLength     = 12
	quickListSeparator        = "-"
)

// UserServiceProvider defines the interface for user account services.
type UserServiceProvider interface {
	GetUserByID(id int64) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	CreateRegular(username, pw string) (models.User, error)
	CreateQuickList() (models.User, string, error)
	VerifyPassword(userID int64, pw string) bool
	ChangePassword(userID int64, currentPassword, newPassword string) error
	SetDisplayName(userID int64, name string) error
	SetTimeZone(userID int64, zone string) error
	TouchLastLogin(userID int64) error
	Delete(userID int64) error
	Merge(sourceUserID, targetUserID, defaultGroupID int64) error
	ResolveQuickList(compositePassword string) (models.User, error)
}

// UserService provides business logic for account management. It owns
// the user records of both regular and Quick List accounts.
type UserService struct {
	db     *sql.DB
	hasher password.Hasher
	clock  clock.Clock
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, hasher password.Hasher, clk clock.Clock) *UserService {
	return &UserService{db: db, hasher: hasher, clock: clk}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id int64) (models.User, error) {
	row := s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, time_zone, signed_up_at, last_login_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a single user by their username,
// case-insensitively.
func (s *UserService) GetUserByUsername(username string) (models.User, error) {
	row := s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, time_zone, signed_up_at, last_login_at
		FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// CreateRegular creates a regular username/password account. The
// username must be non-blank, within length, must not begin with the
// reserved Quick List prefix and must not already exist (usernames are
// unique case-insensitively).
func (s *UserService) CreateRegular(username, pw string) (models.User, error) {
	if strings.TrimSpace(username) == "" || len(username) > maxUsernameLength {
		return models.User{}, ErrInvalidInput
	}
	if strings.HasPrefix(strings.ToLower(username), strings.ToLower(models.QuickListUsernamePrefix)) {
		return models.User{}, ErrInvalidInput
	}
	if strings.TrimSpace(pw) == "" {
		return models.User{}, ErrInvalidInput
	}
	return s.insertUser(username, username, pw)
}

// CreateQuickList mints an anonymous account identified only by a
// generated password. It returns the account and the composite login
// credential "{id}-{password}", which is shown to the user exactly
// once and never recoverable afterwards.
func (s *UserService) CreateQuickList() (models.User, string, error) {
	raw, err := randomSegmented(quickListPasswordLength, quickListPasswordSegments)
	if err != nil {
		return models.User{}, "", err
	}
	suffix, err := randomSegmented(quickListSuffixLength, 1)
	if err != nil {
		return models.User{}, "", err
	}
	username := fmt.Sprintf("%s %s", models.QuickListUsernamePrefix, suffix)

	user, err := s.insertUser(username, models.QuickListUsernamePrefix, raw)
	if err != nil {
		return models.User{}, "", err
	}
	composite := fmt.Sprintf("%d%s%s", user.ID, quickListSeparator, raw)
	return user, composite, nil
}

// insertUser hashes the password and persists a new account. Accounts
// start with LastLoginAt one second before SignedUpAt, the sentinel
// for "never signed in".
func (s *UserService) insertUser(username, displayName, pw string) (models.User, error) {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := models.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		TimeZone:     "UTC",
		SignedUpAt:   now,
		LastLoginAt:  now.Add(-time.Second),
	}

	res, err := s.db.Exec(`
		INSERT INTO users (username, display_name, password_hash, time_zone, signed_up_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.DisplayName, user.PasswordHash, user.TimeZone, user.SignedUpAt, user.LastLoginAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, err
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// VerifyPassword reports whether pw is the user's password. False when
// the user does not exist or pw is empty.
func (s *UserService) VerifyPassword(userID int64, pw string) bool {
	if pw == "" {
		return false
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return false
	}
	return s.hasher.Verify(pw, user.PasswordHash)
}

// ChangePassword verifies the current password, then hashes and sets a
// new one. The new password may not be blank.
func (s *UserService) ChangePassword(userID int64, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}
	if !s.VerifyPassword(userID, currentPassword) {
		return ErrNotFound
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, userID)
	return err
}

// SetDisplayName changes the user's free-text display name.
func (s *UserService) SetDisplayName(userID int64, name string) error {
	if strings.TrimSpace(name) == "" || len(name) > maxDisplayNameLength {
		return ErrInvalidInput
	}
	return s.updateUserField("UPDATE users SET display_name = ? WHERE id = ?", name, userID)
}

// SetTimeZone changes the user's IANA time zone. The zone name must be
// known to the zone database.
func (s *UserService) SetTimeZone(userID int64, zone string) error {
	if zone == "" {
		return ErrInvalidInput
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return ErrInvalidInput
	}
	return s.updateUserField("UPDATE users SET time_zone = ? WHERE id = ?", zone, userID)
}

// TouchLastLogin records a successful sign-in.
func (s *UserService) TouchLastLogin(userID int64) error {
	return s.updateUserField("UPDATE users SET last_login_at = ? WHERE id = ?", s.clock.Now(), userID)
}

func (s *UserService) updateUserField(query string, value interface{}, userID int64) error {
	res, err := s.db.Exec(query, value, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user account. The user's timers, groups, history
// entries and group inclusions go with it via foreign key cascades.
func (s *UserService) Delete(userID int64) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Merge reassigns every timer and timer group owned by the source user
// to the target user, then deletes the source account, as a single
// transaction. Each transferred timer that belongs to no group is
// placed into defaultGroupID when one is supplied (non-zero).
func (s *UserService) Merge(sourceUserID, targetUserID, defaultGroupID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", sourceUserID).Scan(&exists); err != nil || exists == 0 {
		return ErrNotFound
	}
	if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", targetUserID).Scan(&exists); err != nil || exists == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(
		"UPDATE timer_groups SET creator_user_id = ? WHERE creator_user_id = ?",
		targetUserID, sourceUserID); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	movedTimers, err := collectIDs(tx, "SELECT id FROM timers WHERE creator_user_id = ?", sourceUserID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		"UPDATE timers SET creator_user_id = ? WHERE creator_user_id = ?",
		targetUserID, sourceUserID); err != nil {
		return err
	}

	if defaultGroupID != 0 {
		for _, timerID := range movedTimers {
			var inclusions int
			if err := tx.QueryRow(
				"SELECT COUNT(*) FROM group_inclusions WHERE timer_id = ?", timerID).Scan(&inclusions); err != nil {
				return err
			}
			if inclusions == 0 {
				if _, err := tx.Exec(
					"INSERT INTO group_inclusions (timer_id, group_id) VALUES (?, ?)",
					timerID, defaultGroupID); err != nil {
					return err
				}
			}
		}
	}

	if _, err := tx.Exec("DELETE FROM users WHERE id = ?", sourceUserID); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveQuickList parses a composite Quick List credential of the form
// "{id}-{password}" and returns the account it identifies. Every
// failure — malformed input, unknown account, wrong password — yields
// the same ErrNotFound, so the caller learns nothing about which part
// was wrong.
func (s *UserService) ResolveQuickList(compositePassword string) (models.User, error) {
	composite := strings.TrimSpace(compositePassword)
	idPart, raw, found := strings.Cut(composite, quickListSeparator)
	if !found {
		return models.User{}, ErrNotFound
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return models.User{}, ErrNotFound
	}
	user, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}
	if raw == "" || !s.hasher.Verify(raw, user.PasswordHash) {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// randomSegmented generates length random characters from the Quick
// List alphabet, split into parts hyphen-separated segments of at
// least one character each.
func randomSegmented(length, parts int) (string, error) {
	lengths := splitLengths(length, parts)
	segments := make([]string, 0, len(lengths))
	for _, n := range lengths {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(quickListAlphabet))))
			if err != nil {
				return "", err
			}
			sb.WriteByte(quickListAlphabet[idx.Int64()])
		}
		segments = append(segments, sb.String())
	}
	return strings.Join(segments, quickListSeparator), nil
}

// splitLengths splits total into parts positive integers that sum to
// total. Extra characters beyond the one-per-segment minimum land in
// random segments.
func splitLengths(total, parts int) []int {
	if parts <= 1 || total <= parts {
		return []int{total}
	}
	lengths := make([]int, parts)
	for i := range lengths {
		lengths[i] = 1
	}
	for i := parts; i < total; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(parts)))
		if err != nil {
			lengths[0]++
			continue
		}
		lengths[idx.Int64()]++
	}
	return lengths
}

func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&user.TimeZone,
		&user.SignedUpAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// collectIDs runs a single-column id query and returns the ids.
func collectIDs(tx *sql.Tx, query string, args ...interface{}) ([]int64, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// isUniqueViolation reports whether err is a sqlite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
