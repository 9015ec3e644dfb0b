package models

import "time"

// Timer is a named count-up measurement owned by a user.
//
// A timer is in exactly one of three states: running, suspended
// (Running=false on a non-historical timer, resumable) or historical
// (Historical=true, its count-from instant is permanently frozen
// against reset and resume, though it may still be stopped).
type Timer struct {
	ID            int64     `json:"id"`
	Description   string    `json:"description"`
	CreatorUserID int64     `json:"creatorUserId"`
	CreationTime  time.Time `json:"creationTime"`
	CountFromTime time.Time `json:"countFromTime"`
	Public        bool      `json:"public"`
	Historical    bool      `json:"historical"`
	Running       bool      `json:"running"`
	PermalinkCode string    `json:"permalinkCode"`
}

// IsBackDated reports whether the timer counts from before its creation.
func (t Timer) IsBackDated() bool {
	return t.CountFromTime.Before(t.CreationTime)
}

// TimerReset is an append-only entry in a timer's reset history. Every
// state-changing operation on a timer records exactly one entry.
type TimerReset struct {
	ID         int64     `json:"id"`
	TimerID    int64     `json:"timerId"`
	OccurredAt time.Time `json:"occurredAt"`
	Reason     string    `json:"reason"`
}
