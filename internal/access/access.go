// Package access holds the ownership and visibility rules consulted by
// every mutating or reading operation in the services.
package access

import "github.com/padsapp/pads-be/internal/models"

// AnonymousID is the sentinel actor id for a request with no signed-in
// session. It never matches a real creator id, so it is denied mutation
// everywhere and may only read public timers.
const AnonymousID int64 = 0

// CanRead reports whether actor may view the timer.
func CanRead(actorID int64, t models.Timer) bool {
	return t.Public || (actorID != AnonymousID && actorID == t.CreatorUserID)
}

// CanMutate reports whether actor owns the entity identified by
// creatorID. The public flag never grants mutation rights.
func CanMutate(actorID, creatorID int64) bool {
	return actorID != AnonymousID && actorID == creatorID
}
