// shared/leaderboard/blacklist.go
package leaderboard

import "github.com/Ftotnem/DAYZ-BOT/shared/models"

// Blacklist is the read-only set of player IDs never shown on a leaderboard.
type Blacklist map[string]struct{}

// NewBlacklist builds the set, ignoring empty IDs.
func NewBlacklist(ids []string) Blacklist {
	b := make(Blacklist, len(ids))
	for _, id := range ids {
		if id != "" {
			b[id] = struct{}{}
		}
	}
	return b
}

// Contains is safe on a nil set.
func (b Blacklist) Contains(id string) bool {
	_, ok := b[id]
	return ok
}

// Filter drops blacklisted entries and keeps the relative order of the rest.
// The input slice is not modified.
func Filter(entries []models.LeaderboardEntry, blacklist Blacklist) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if blacklist.Contains(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}
