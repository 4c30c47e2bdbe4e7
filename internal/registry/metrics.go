package registry

// Conflict reasons reported to [Metrics.ObserveConflict].
const (
	ReasonShare         = "share"
	ReasonLocked        = "locked"
	ReasonInUse         = "in_use"
	ReasonAlreadyLocked = "already_locked"
)

// Metrics receives observations of registry state changes. A nil [Metrics]
// is valid and records nothing.
type Metrics interface {
	ObserveRegister(access Access, share Share)
	ObserveDeregister(count int)
	ObserveConflict(reason string)
	ObserveLock()
	ObserveUnlock()
	ObserveEviction(count int)
}
