// shared/models/leaderboard.go
package models

// LeaderboardEntry is one player's ranked statistic snapshot as returned by the
// stats provider. Entries are created per request and never mutated.
type LeaderboardEntry struct {
	ID                string  `json:"cftools_id"`
	Name              string  `json:"latest_name"`
	Rank              int     `json:"rank"`
	Kills             int     `json:"kills"`
	Deaths            int     `json:"deaths"`
	Suicides          int     `json:"suicides"`
	Hits              int     `json:"hits"`
	EnvironmentDeaths int     `json:"environment_deaths"`
	KDRatio           float64 `json:"kdratio"`
	LongestKill       float64 `json:"longest_kill"` // meters
	LongestShot       float64 `json:"longest_shot"` // meters
	Playtime          int64   `json:"playtime"`     // seconds
}
