package shared

// TrashedMode selects how soft-deleted rows take part in a query
type TrashedMode string

const (
	// TrashedWithout excludes soft-deleted rows (default)
	TrashedWithout TrashedMode = ""
	// TrashedWith includes soft-deleted rows alongside live ones
	TrashedWith TrashedMode = "with"
	// TrashedOnly returns soft-deleted rows only
	TrashedOnly TrashedMode = "only"
)

// IsValid reports whether the mode is one of the known values
func (m TrashedMode) IsValid() bool {
	switch m {
	case TrashedWithout, TrashedWith, TrashedOnly:
		return true
	}
	return false
}

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Trashed  TrashedMode
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
