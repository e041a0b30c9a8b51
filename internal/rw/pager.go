package rw

import "context"

// DefaultPageSize is the number of events shown per page.
const DefaultPageSize = 300

// Page is one page of query results.
type Page struct {
	Number int
	Size   int
	Total  int
	Rows   []FileEvent
}

// PageCount returns the number of pages, at least 1.
func (p Page) PageCount() int {
	if p.Size <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

// First returns the 1-based ordinal of the first row on the page, or 0 if empty.
func (p Page) First() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return (p.Number-1)*p.Size + 1
}

// Last returns the 1-based ordinal of the last row on the page, or 0 if empty.
func (p Page) Last() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return (p.Number-1)*p.Size + len(p.Rows)
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.PageCount() }

// Pager owns the pagination state for browsing the event log:
// the keyword, the current page and the page size.
type Pager struct {
	q       Querier
	keyword string
	number  int
	size    int
	last    Page
}

// NewPager creates a Pager on page 1. A non-positive size uses DefaultPageSize.
func NewPager(q Querier, size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{q: q, number: 1, size: size}
}

// Keyword returns the current keyword.
func (p *Pager) Keyword() string { return p.keyword }

// SetKeyword changes the filter and returns to page 1.
func (p *Pager) SetKeyword(keyword string) {
	p.keyword = keyword
	p.number = 1
	p.last = Page{}
}

// Refresh re-runs the query for the current page.
func (p *Pager) Refresh(ctx context.Context) Page {
	total, rows := p.q.Query(ctx, p.keyword, p.number, p.size)
	p.last = Page{Number: p.number, Size: p.size, Total: total, Rows: rows}
	return p.last
}

// Goto moves to page n, clamped to the known page range, and refreshes.
func (p *Pager) Goto(ctx context.Context, n int) Page {
	if n < 1 {
		n = 1
	}
	if p.last.Size > 0 && n > p.last.PageCount() {
		n = p.last.PageCount()
	}
	p.number = n
	return p.Refresh(ctx)
}

// Next moves forward one page unless already on the last page.
func (p *Pager) Next(ctx context.Context) Page {
	if p.last.Size == 0 {
		p.Refresh(ctx)
	}
	if p.last.HasNext() {
		p.number++
	}
	return p.Refresh(ctx)
}

// Prev moves back one page, never below page 1.
func (p *Pager) Prev(ctx context.Context) Page {
	if p.number > 1 {
		p.number--
	}
	return p.Refresh(ctx)
}
