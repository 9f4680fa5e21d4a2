// shared/leaderboard/statistic.go

// Package leaderboard turns ranked provider entries into bounded display pages.
package leaderboard

import (
	"fmt"
	"strings"
)

// Statistic selects both the provider ordering parameter and the row template.
type Statistic string

const (
	Overall        Statistic = "OVERALL"
	Kills          Statistic = "KILLS"
	KillDeathRatio Statistic = "KILL_DEATH_RATIO"
	LongestKill    Statistic = "LONGEST_KILL"
	LongestShot    Statistic = "LONGEST_SHOT"
	Playtime       Statistic = "PLAYTIME"
	Deaths         Statistic = "DEATHS"
	Suicides       Statistic = "SUICIDES"
)

// Statistics lists every kind in the order the command offers them.
var Statistics = []Statistic{
	Overall, Kills, KillDeathRatio, LongestKill, Playtime, LongestShot, Deaths, Suicides,
}

var statisticLabels = map[Statistic]string{
	Overall:        "Overall",
	Kills:          "Kills",
	KillDeathRatio: "Kill Death Ratio",
	LongestKill:    "Longest Kill",
	LongestShot:    "Longest Shot",
	Playtime:       "Playtime",
	Deaths:         "Deaths",
	Suicides:       "Suicides",
}

// Provider field names. OVERALL ranks by kills.
var statisticAPINames = map[Statistic]string{
	Overall:        "kills",
	Kills:          "kills",
	KillDeathRatio: "kdratio",
	LongestKill:    "longest_kill",
	LongestShot:    "longest_shot",
	Playtime:       "playtime",
	Deaths:         "deaths",
	Suicides:       "suicides",
}

// ErrUnknownStatistic is returned by ParseStatistic.
var ErrUnknownStatistic = fmt.Errorf("unknown statistic")

// ParseStatistic accepts any case; an empty string means Overall.
func ParseStatistic(s string) (Statistic, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Overall, nil
	}
	stat := Statistic(strings.ToUpper(s))
	if _, ok := statisticLabels[stat]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatistic, s)
	}
	return stat, nil
}

// Label is the human readable name, e.g. "Kill Death Ratio".
func (s Statistic) Label() string {
	return statisticLabels[s]
}

// APIName is the provider's statistic parameter.
func (s Statistic) APIName() string {
	return statisticAPINames[s]
}

// IsOverall reports whether rows use the multi-line overall template.
func (s Statistic) IsOverall() bool {
	return s == Overall
}

// Title is the page header text for a leaderboard of this kind.
func Title(s Statistic, guildName string) string {
	title := s.Label() + " Leaderboard"
	if guildName != "" {
		title += " for " + guildName
	}
	return title
}
