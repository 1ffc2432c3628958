package updatelock

// Initiator identifies what asked for a wallpaper update.
type Initiator int

const (
	User Initiator = iota
	DisplayChangeWatcher
	HeartbeatTimer
)

func (i Initiator) String() string {
	switch i {
	case User:
		return "user"
	case DisplayChangeWatcher:
		return "display-change-watcher"
	case HeartbeatTimer:
		return "heartbeat-timer"
	default:
		return "unknown"
	}
}

// preempts reports whether a request from the initiator may invalidate an
// already active lock. Unknown initiators never preempt.
var preempts = map[Initiator]bool{
	User:                 true,
	DisplayChangeWatcher: true,
	HeartbeatTimer:       false,
}

// Preempts reports whether i takes over from an active lock.
func (i Initiator) Preempts() bool {
	return preempts[i]
}
