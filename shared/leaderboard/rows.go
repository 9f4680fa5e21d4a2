// shared/leaderboard/rows.go
package leaderboard

import (
	"fmt"
	"strconv"

	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
)

var rankMarkers = map[int]string{
	1: "👑",
	2: ":two:",
	3: ":three:",
	4: ":four:",
	5: ":five:",
	6: ":six:",
	7: ":seven:",
	8: ":eight:",
	9: ":nine:",
}

// Display field per provider statistic name. Provider and entry field names
// differ for kdratio and the distance stats.
var fieldByAPIName = map[string]func(models.LeaderboardEntry) string{
	"kills":        func(e models.LeaderboardEntry) string { return strconv.Itoa(e.Kills) },
	"deaths":       func(e models.LeaderboardEntry) string { return strconv.Itoa(e.Deaths) },
	"suicides":     func(e models.LeaderboardEntry) string { return strconv.Itoa(e.Suicides) },
	"kdratio":      func(e models.LeaderboardEntry) string { return formatFloat(e.KDRatio) },
	"longest_kill": func(e models.LeaderboardEntry) string { return formatFloat(e.LongestKill) },
	"longest_shot": func(e models.LeaderboardEntry) string { return formatFloat(e.LongestShot) },
	"playtime":     formatPlaytimeHours,
}

var suffixByAPIName = map[string]string{
	"kdratio":      " k/d",
	"longest_kill": "m",
	"longest_shot": "m",
	"kills":        " kills",
	"deaths":       " deaths",
	"suicides":     " suicides",
}

// RankLabel is the marker shown in front of an overall leaderboard name.
func RankLabel(position int) string {
	if marker, ok := rankMarkers[position]; ok {
		return marker
	}
	return strconv.Itoa(position) + "."
}

// Rows renders one row per entry using the template for stat.
func Rows(entries []models.LeaderboardEntry, stat Statistic) []display.Row {
	rows := make([]display.Row, 0, len(entries))
	for i, e := range entries {
		if stat.IsOverall() {
			rows = append(rows, overallRow(i+1, e))
		} else {
			rows = append(rows, statisticRow(i+1, e, stat))
		}
	}
	return rows
}

func overallRow(position int, e models.LeaderboardEntry) display.Row {
	return display.Row{
		Label: fmt.Sprintf("%s %s", RankLabel(position), e.Name),
		Value: fmt.Sprintf("Kills: **%d**\nDeaths: **%d**\nKD: **%s**\nLK: **%sm**",
			e.Kills, e.Deaths, formatFloat(e.KDRatio), formatFloat(e.LongestKill)),
		Inline: true,
	}
}

func statisticRow(position int, e models.LeaderboardEntry, stat Statistic) display.Row {
	name := stat.APIName()
	value := ""
	if field, ok := fieldByAPIName[name]; ok {
		value = field(e)
	}
	return display.Row{
		Label:  fmt.Sprintf("%d. %s", position, e.Name),
		Value:  "```" + value + suffixByAPIName[name] + "```",
		Inline: true,
	}
}

func formatPlaytimeHours(e models.LeaderboardEntry) string {
	return fmt.Sprintf("%d hours\n%d minutes", e.Playtime/3600, (e.Playtime/60)%60)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
