package relview

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based offset window.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize coerces the request into range: page <= 0 becomes 1, limit <= 0
// becomes DefaultLimit and limit is capped at MaxLimit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the index of the first record of the page.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Page is one window of a ranked result set.
type Page[T any] struct {
	Records      []T   `json:"records"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// Paginate windows an already ranked sequence.
func Paginate[T any](records []T, req PageRequest) Page[T] {
	req = req.Normalize()
	total := len(records)

	start := min(req.Offset(), total)
	end := min(start+req.Limit, total)

	window := make([]T, end-start)
	copy(window, records[start:end])
	return NewPage(window, int64(total), req)
}

// NewPage builds page metadata for records windowed elsewhere.
func NewPage[T any](records []T, total int64, req PageRequest) Page[T] {
	req = req.Normalize()
	if records == nil {
		records = []T{}
	}
	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return Page[T]{
		Records:      records,
		Page:         req.Page,
		Limit:        req.Limit,
		TotalRecords: total,
		TotalPages:   totalPages,
		HasNextPage:  req.Page < totalPages,
		HasPrevPage:  req.Page > 1,
	}
}
