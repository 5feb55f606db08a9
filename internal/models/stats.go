package models

// SiteStats holds record counts reported by the stat updater.
type SiteStats struct {
	Users          int64 `json:"users"`
	Posts          int64 `json:"posts"`
	ActiveSessions int64 `json:"activeSessions"`
}
