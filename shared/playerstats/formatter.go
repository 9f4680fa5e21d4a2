// shared/playerstats/formatter.go

// Package playerstats derives and renders the detailed view of one player.
package playerstats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
)

const (
	// FallbackWeapon is shown when a player has no weapon kills recorded.
	FallbackWeapon = "Knife"
	// FallbackName titles the card when no name history exists.
	FallbackName = "Survivor"
	// NotApplicable replaces derived values that cannot be computed.
	NotApplicable = "n/a"

	maxNames      = 10
	nameSeparator = "`**, **`"
)

// Breakdown is a playtime split into calendar-style units.
type Breakdown struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
}

// BreakdownPlaytime decomposes total seconds exactly: days, hours mod 24,
// minutes mod 60, seconds mod 60.
func BreakdownPlaytime(seconds int64) Breakdown {
	if seconds < 0 {
		seconds = 0
	}
	return Breakdown{
		Days:    seconds / 86400,
		Hours:   (seconds / 3600) % 24,
		Minutes: (seconds / 60) % 60,
		Seconds: seconds % 60,
	}
}

// TotalMinutes folds days and hours back into whole minutes.
func (b Breakdown) TotalMinutes() int64 {
	return b.Days*24*60 + b.Hours*60 + b.Minutes
}

func (b Breakdown) String() string {
	return fmt.Sprintf("%d days, %d hours, %d minutes and %d seconds", b.Days, b.Hours, b.Minutes, b.Seconds)
}

// AverageSessionMinutes returns false when there are no sessions to divide by.
func AverageSessionMinutes(b Breakdown, sessions int) (int64, bool) {
	if sessions <= 0 {
		return 0, false
	}
	return int64(math.Round(float64(b.TotalMinutes()) / float64(sessions))), true
}

// FavoriteWeapon picks the strict maximum; ties keep the first weapon seen.
func FavoriteWeapon(weapons models.WeaponKills) (string, int) {
	if len(weapons) == 0 {
		return FallbackWeapon, 0
	}
	best := weapons[0]
	for _, w := range weapons[1:] {
		if w.Kills > best.Kills {
			best = w
		}
	}
	return best.Weapon, best.Kills
}

// RecentNames returns the history most-recent-first without touching the input.
func RecentNames(history []string) []string {
	out := make([]string, len(history))
	for i, name := range history {
		out[len(history)-1-i] = name
	}
	return out
}

// Summary holds every derived field of a record.
type Summary struct {
	Name           string
	Names          []string
	Playtime       Breakdown
	Sessions       int
	AverageSession int64
	HasAverage     bool
	FavoriteWeapon string
	FavoriteKills  int
	LastUpdated    time.Time
	HasLastUpdated bool
}

// Formatter renders player records in a fixed time zone.
type Formatter struct {
	loc *time.Location
}

// NewFormatter uses time.Local when loc is nil.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{loc: loc}
}

// Summarize computes the derived fields.
func (f *Formatter) Summarize(rec *models.PlayerStats) Summary {
	names := RecentNames(rec.NameHistory)
	s := Summary{
		Name:     FallbackName,
		Names:    names,
		Playtime: BreakdownPlaytime(rec.Playtime),
		Sessions: rec.Sessions,
	}
	if len(names) > 0 && names[0] != "" {
		s.Name = names[0]
	}
	s.AverageSession, s.HasAverage = AverageSessionMinutes(s.Playtime, rec.Sessions)

	weapon, kills := FavoriteWeapon(rec.Weapons)
	s.FavoriteWeapon = f.cleanWeaponName(weapon)
	s.FavoriteKills = kills

	if !rec.UpdatedAt.IsZero() {
		s.LastUpdated = rec.UpdatedAt.In(f.loc)
		s.HasLastUpdated = true
	}
	return s
}

// Format renders one display document for the record.
func (f *Formatter) Format(rec *models.PlayerStats) display.Page {
	s := f.Summarize(rec)

	average := NotApplicable
	if s.HasAverage {
		average = strconv.FormatInt(s.AverageSession, 10)
	}

	history := "None"
	if len(s.Names) > 0 {
		shown := s.Names
		if len(shown) > maxNames {
			shown = shown[:maxNames]
		}
		history = "**`" + strings.Join(shown, nameSeparator) + "`**"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Survivor has played for %s over %d total sessions.\n", s.Playtime, s.Sessions)
	fmt.Fprintf(&b, "Bringing them to an average of %s minutes per session.\n\n", average)
	fmt.Fprintf(&b, "**Name History:** %s\n\n", history)
	fmt.Fprintf(&b, "**Deaths:** %d\n", rec.Deaths)
	fmt.Fprintf(&b, "**Hits:** %d\n", rec.Hits)
	fmt.Fprintf(&b, "**KDRatio:** %s\n", formatFloat(rec.KDRatio))
	fmt.Fprintf(&b, "**Kills:** %d\n", rec.Kills)
	fmt.Fprintf(&b, "**Longest Kill:** %s m\n", formatFloat(rec.LongestKill))
	fmt.Fprintf(&b, "**Longest Shot:** %s m\n", formatFloat(rec.LongestShot))
	fmt.Fprintf(&b, "**Suicides:** %d\n", rec.Suicides)
	fmt.Fprintf(&b, "**Favorite Weapon:** %s with %d kills", s.FavoriteWeapon, s.FavoriteKills)

	return display.Page{
		Header:      &display.Header{Title: "Stats for " + s.Name},
		Description: b.String(),
		Footer:      &display.Footer{Text: lastActionFooter(s)},
	}
}

func (f *Formatter) cleanWeaponName(name string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if cleaned == "" {
		return FallbackWeapon
	}
	// Casers are stateful, so one per call.
	return cases.Title(language.English).String(cleaned)
}

// lastActionFooter splits the timestamp into weekday, month, day, year,
// time of day and zone label.
func lastActionFooter(s Summary) string {
	if !s.HasLastUpdated {
		return "Last action: unknown"
	}
	t := s.LastUpdated
	clock := t.Format("15:04:05")
	zone, _ := t.Zone()
	return fmt.Sprintf("Last action: %s | %s %s %s %d %s (%s)",
		clock, t.Format("Mon"), t.Format("Jan"), t.Format("02"), t.Year(), clock, zone)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotApplicable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
