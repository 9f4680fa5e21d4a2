// shared/leaderboard/paginate.go
package leaderboard

import (
	"unicode/utf8"

	"github.com/Ftotnem/DAYZ-BOT/shared/display"
	"github.com/Ftotnem/DAYZ-BOT/shared/models"
)

const (
	// MaxRowsPerPage is the delivery platform's field limit per page.
	MaxRowsPerPage = 25
	// MaxPageChars is the delivery platform's total content limit per page.
	MaxPageChars = 6000
)

// DefaultHint is the footer shown on the last page when hints are enabled.
const DefaultHint = "Did you know, you can use /stats <id> to display detailed information on a player?\n" +
	"You can find someone's CFTools id on their CFTools Cloud account page"

// Options carries the page metadata. Hint length is always reserved on every
// page, whether or not it is shown, so attaching it never overflows a page.
type Options struct {
	Header   display.Header
	Hint     string
	ShowHint bool
}

func (o Options) reserved() int {
	return utf8.RuneCountInString(o.Header.Title) + utf8.RuneCountInString(o.Hint)
}

// Paginate greedily packs rows into pages of at most perPage rows (capped at
// MaxRowsPerPage) whose reserved header/footer length plus row lengths stays
// below MaxPageChars. Row order is preserved and no row is dropped.
func Paginate(rows []display.Row, perPage int, opts Options) []display.Page {
	if perPage <= 0 || perPage > MaxRowsPerPage {
		perPage = MaxRowsPerPage
	}

	var pages []display.Page
	var current []display.Row
	count := opts.reserved()

	for _, row := range rows {
		rowLen := row.Len()
		if len(current) > 0 && (len(current) == perPage || count+rowLen >= MaxPageChars) {
			pages = append(pages, display.Page{Rows: current})
			current = nil
			count = opts.reserved()
		}
		current = append(current, row)
		count += rowLen
	}
	if len(current) > 0 {
		pages = append(pages, display.Page{Rows: current})
	}

	decorate(pages, opts)
	return pages
}

// Truncate keeps the first limit rows and returns exactly one page.
func Truncate(rows []display.Row, limit int, opts Options) []display.Page {
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	kept := make([]display.Row, len(rows))
	copy(kept, rows)
	pages := []display.Page{{Rows: kept}}
	decorate(pages, opts)
	return pages
}

// BuildPages renders entries with the template for stat and lays them out in
// multi-page mode or single-page truncation mode. Callers must not pass an
// empty entry list; that is reported as "no data" upstream.
func BuildPages(entries []models.LeaderboardEntry, stat Statistic, rowLimit int, multiPage bool, opts Options) []display.Page {
	rows := Rows(entries, stat)
	if multiPage {
		return Paginate(rows, rowLimit, opts)
	}
	return Truncate(rows, rowLimit, opts)
}

func decorate(pages []display.Page, opts Options) {
	if len(pages) == 0 {
		return
	}
	header := opts.Header
	pages[0].Header = &header
	if opts.ShowHint && opts.Hint != "" {
		pages[len(pages)-1].Footer = &display.Footer{Text: opts.Hint}
	}
}
