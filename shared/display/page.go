// shared/display/page.go

// Package display holds the structured documents handed to the delivery layer.
// Nothing here knows about Discord; the sink converts pages to its own format.
package display

import "unicode/utf8"

// Header is the title line shown at the top of a page.
type Header struct {
	Title   string
	IconURL string
}

// Footer is the hint line shown at the bottom of a page.
type Footer struct {
	Text string
}

// Row is one labelled value block.
type Row struct {
	Label  string
	Value  string
	Inline bool
}

// Len is the number of characters the row contributes to a page.
func (r Row) Len() int {
	return utf8.RuneCountInString(r.Label) + utf8.RuneCountInString(r.Value)
}

// Page is one bounded unit of displayable content.
type Page struct {
	Header      *Header
	Description string
	Rows        []Row
	Footer      *Footer
}

// Len sums every visible character on the page, header and footer included.
func (p Page) Len() int {
	n := utf8.RuneCountInString(p.Description)
	if p.Header != nil {
		n += utf8.RuneCountInString(p.Header.Title)
	}
	if p.Footer != nil {
		n += utf8.RuneCountInString(p.Footer.Text)
	}
	for _, r := range p.Rows {
		n += r.Len()
	}
	return n
}
