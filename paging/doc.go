// Package paging filters and pages value lists for incremental presentation.
//
// Everything here is a pure function over a slice the caller already holds;
// nothing is fetched and nothing is cached.
//
// Filter keeps the values whose display text starts with the query, ignoring
// case (Unicode case folding). An empty query returns the input slice itself,
// so callers can compare slice identity to skip redundant work.
//
// Paginate cuts one page out of a slice and returns it as a Page, which
// encodes to the same JSON shape as a Spring Data page:
//
//	{"content": [...], "number": 1, "size": 3, "totalElements": 10,
//	 "totalPages": 4, "first": true, "last": false, "numberOfElements": 3}
//
// Pages are one-based or zero-based as the caller asks. The requested page
// number is echoed back unchanged. A page past the end (or before the start)
// is empty rather than an error, and there is always at least one page.
//
// PageOf combines both steps, which is what a picker backing an
// autocomplete field needs:
//
//	page, err := paging.PageOf(values, paging.Request{Page: 1, Query: "adm"}, nil)
package paging
