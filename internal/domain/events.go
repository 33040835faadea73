package domain

import "time"

// EventKind enumerates what the core reports to observers
type EventKind int

const (
	EventCacheRefreshed EventKind = iota
	EventModDownloaded
	EventProfileDeployed
	EventProfileUndeployed
	EventDeployFailed
	EventUndeployFailed
)

func (k EventKind) String() string {
	switch k {
	case EventCacheRefreshed:
		return "cache-refreshed"
	case EventModDownloaded:
		return "mod-downloaded"
	case EventProfileDeployed:
		return "profile-deployed"
	case EventProfileUndeployed:
		return "profile-undeployed"
	case EventDeployFailed:
		return "deploy-failed"
	case EventUndeployFailed:
		return "undeploy-failed"
	default:
		return "unknown"
	}
}

// Event is delivered synchronously to registered handlers.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Profile  string
	ModID    int
	Version  string
	Path     string
	ModCount int
	Reason   error
}
