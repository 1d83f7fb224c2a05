package models

// Actor identifies who is requesting a lifecycle transition: either a real
// user or the system itself. The system actor bypasses privilege guards and
// is only reachable from the pin-expiry sweep, never from request handling.
type Actor struct {
	uid    int64
	system bool
}

// UserActor returns an actor for the given user id
func UserActor(uid int64) Actor {
	return Actor{uid: uid}
}

// SystemActor returns the system actor
func SystemActor() Actor {
	return Actor{system: true}
}

// UID returns the acting user id, or 0 for the system actor
func (a Actor) UID() int64 {
	if a.system {
		return 0
	}
	return a.uid
}

// IsSystem reports whether this is the system actor
func (a Actor) IsSystem() bool {
	return a.system
}
