package pagination

const (
	// DefaultLimit is used when a request does not ask for a page size
	DefaultLimit int64 = 10
	// MaxLimit caps the page size a caller can request
	MaxLimit int64 = 100
	// MaxPage keeps (page-1)*MaxLimit well inside a 32-bit int
	MaxPage int64 = 1_000_000
)

// Pagination represents pagination information for list responses.
type Pagination struct {
	Total      int64 // Total number of records
	Page       int64 // Current page number (1-based)
	Limit      int64 // Number of records per page
	TotalPages int64 // Total number of pages
}

// New creates a new Pagination instance with calculated total pages.
func New(total, page, limit int64) *Pagination {
	var totalPages int64
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// Normalize clamps page to 1..MaxPage and limit to 1..MaxLimit, defaulting to DefaultLimit.
func Normalize(page, limit int64) (int64, int64) {
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset returns the number of rows to skip for a page. Arguments are normalized first.
func Offset(page, limit int64) int {
	page, limit = Normalize(page, limit)
	return int((page - 1) * limit)
}
