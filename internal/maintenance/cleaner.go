package maintenance

import (
	"database/sql"
	"time"

	"github.com/padsapp/pads-be/internal/clock"
	"github.com/padsapp/pads-be/internal/models"
	"github.com/padsapp/pads-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Cleaner periodically deletes abandoned Quick List accounts: accounts
// whose password was generated but never used to sign in, that own no
// timers, and that have sat idle past the configured age. Accounts
// with timers are kept indefinitely so a saved Quick List password
// keeps working.
type Cleaner struct {
	db       *sql.DB
	users    services.UserServiceProvider
	clock    clock.Clock
	schedule cron.Schedule
	maxIdle  time.Duration
	nextRun  time.Time
	ticker   *time.Ticker
	done     chan bool
}

// NewCleaner creates a cleaner from a standard cron expression and a
// maximum idle age in days.
func NewCleaner(db *sql.DB, users services.UserServiceProvider, clk clock.Clock, cronExpr string, maxIdleDays int) (*Cleaner, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Cleaner{
		db:       db,
		users:    users,
		clock:    clk,
		schedule: schedule,
		maxIdle:  time.Duration(maxIdleDays) * 24 * time.Hour,
		done:     make(chan bool),
	}, nil
}

// Run starts the cleaner's ticking loop.
func (c *Cleaner) Run() {
	log.Info().Msg("Starting quick list account cleaner...")
	c.nextRun = c.schedule.Next(c.clock.Now())
	c.ticker = time.NewTicker(1 * time.Minute)
	defer c.ticker.Stop()

	for {
		select {
		case <-c.done:
			log.Info().Msg("Stopping quick list account cleaner.")
			return
		case <-c.ticker.C:
			now := c.clock.Now()
			if now.After(c.nextRun) {
				c.Sweep()
				c.nextRun = c.schedule.Next(now)
			}
		}
	}
}

// Stop halts the cleaner.
func (c *Cleaner) Stop() {
	c.done <- true
}

// Sweep deletes abandoned Quick List accounts once. It returns the
// number of accounts removed.
func (c *Cleaner) Sweep() int {
	cutoff := c.clock.Now().Add(-c.maxIdle)
	rows, err := c.db.Query(`
		SELECT id FROM users
		WHERE username LIKE ?
		  AND last_login_at < signed_up_at
		  AND signed_up_at < ?
		  AND NOT EXISTS (SELECT 1 FROM timers WHERE creator_user_id = users.id)`,
		models.QuickListUsernamePrefix+"%", cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Cleaner: failed to query abandoned accounts")
		return 0
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Error().Err(err).Msg("Cleaner: failed to scan account id")
			return 0
		}
		ids = append(ids, id)
	}

	removed := 0
	for _, id := range ids {
		if err := c.users.Delete(id); err != nil {
			log.Error().Err(err).Int64("user_id", id).Msg("Cleaner: failed to delete account")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("count", removed).Msg("Cleaner: removed abandoned quick list accounts")
	}
	return removed
}
