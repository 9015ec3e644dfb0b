package models

// TimerGroup is a named collection of timers owned by a user. Group
// names are stored lower-cased and are unique per owner.
type TimerGroup struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CreatorUserID int64  `json:"creatorUserId"`
}

// GroupInclusion is the many-to-many join between timers and groups.
// A timer may only be in a group once.
type GroupInclusion struct {
	ID      int64 `json:"id"`
	TimerID int64 `json:"timerId"`
	GroupID int64 `json:"groupId"`
}
