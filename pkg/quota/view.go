package quota

import "github.com/dmitrymomot/formgate/pkg/tier"

// DefaultPerPage is used when a caller does not ask for a page size.
const DefaultPerPage = 20

// Window describes which stored submissions a page may show. The visible set is the
// oldest Visible rows by insertion; pages walk that set newest-first, so Offset and
// Limit apply to the visible set ordered by insertion descending.
type Window struct {
	Total   int64 `json:"total"`
	Visible int64 `json:"visible"`
	Hidden  int64 `json:"hidden"`
	Offset  int64 `json:"-"`
	Limit   int64 `json:"-"`
}

// VisibleWindow clamps total stored rows to viewCap and computes paging bounds for a
// 1-based page. An unlimited cap shows everything.
func VisibleWindow(total, viewCap int64, page, perPage int) Window {
	total = max(total, 0)
	visible := total
	if viewCap != tier.Unlimited {
		visible = min(total, max(viewCap, 0))
	}

	page = max(page, 1)
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	w := Window{Total: total, Visible: visible, Hidden: total - visible}
	w.Offset = int64(page-1) * int64(perPage)
	if w.Offset < visible {
		w.Limit = min(int64(perPage), visible-w.Offset)
	}
	return w
}
