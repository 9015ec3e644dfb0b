package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool with foreign keys enabled.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		time_zone TEXT NOT NULL,
		signed_up_at DATETIME NOT NULL,
		last_login_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS timers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL,
		creator_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		creation_time DATETIME NOT NULL,
		count_from_time DATETIME NOT NULL,
		public INTEGER NOT NULL DEFAULT 0,
		historical INTEGER NOT NULL DEFAULT 0,
		running INTEGER NOT NULL DEFAULT 1,
		permalink_code TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS timer_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		creator_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		-- A user may only have one group of the same name
		UNIQUE (creator_user_id, name)
	);

	CREATE TABLE IF NOT EXISTS group_inclusions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timer_id INTEGER NOT NULL REFERENCES timers(id) ON DELETE CASCADE,
		group_id INTEGER NOT NULL REFERENCES timer_groups(id) ON DELETE CASCADE,
		-- A timer may only be in a group once
		UNIQUE (timer_id, group_id)
	);

	CREATE TABLE IF NOT EXISTS timer_resets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timer_id INTEGER NOT NULL REFERENCES timers(id) ON DELETE CASCADE,
		occurred_at DATETIME NOT NULL,
		reason TEXT NOT NULL,
		-- A timer may only be reset once at the same exact moment
		UNIQUE (timer_id, occurred_at)
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
