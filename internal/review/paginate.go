package review

import "github.com/iliyamo/resort-storefront/internal/model"

// DefaultPerPage is used when a caller asks for a non-positive page size.
const DefaultPerPage = 5

// Page is one window of a review list.
type Page struct {
	Items      []model.Review `json:"items"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

// Paginate slices reviews into 1-based pages. A page below 1 is treated as
// 1 and a page past the end as the last page.
func Paginate(reviews []model.Review, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(reviews)
	pages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * perPage
	end := min(start+perPage, total)
	items := []model.Review{}
	if start < total {
		items = reviews[start:end]
	}
	return Page{Items: items, Page: page, PerPage: perPage, Total: total, TotalPages: pages}
}
