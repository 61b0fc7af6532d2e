package query

// PageRequest is a requested page/pageSize pair.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request into usable bounds: page >= 1 and
// 1 <= pageSize <= maxSize, with zero pageSize taking the default.
func (p PageRequest) Normalize(defaultSize, maxSize int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset returns (page-1)*pageSize. Callers clamp page to >= 1 before this
// point; the max guard keeps a negative offset out of query text regardless.
func (p PageRequest) Offset() int {
	off := (p.Page - 1) * p.PageSize
	if off < 0 {
		return 0
	}
	return off
}

// Page is the pagination envelope returned to the presentation layer.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPage wraps data with pagination metadata. totalPages = ceil(total /
// pageSize); a request beyond the last page yields an empty data array, not an
// error.
func NewPage[T any](data []T, total int, req PageRequest) *Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if total > 0 && req.PageSize > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}
	return &Page[T]{
		Data:       data,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}

// Slice pages a fully materialized result set client-side. Used for the
// spread report, whose candidate set is capped before pagination.
func Slice[T any](all []T, req PageRequest) *Page[T] {
	total := len(all)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}
	return NewPage(all[start:end], total, req)
}
