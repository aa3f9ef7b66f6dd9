package domain

import (
	"fmt"
	"math"
)

// PageStrategy selects how a paged search obtains its total.
type PageStrategy string

const (
	// StrategySimple fetches content and total in a single store round trip.
	StrategySimple PageStrategy = "simple"
	// StrategyComplex runs the content query and a separate, cheaper count
	// query that may be skipped when the content already determines the total.
	StrategyComplex PageStrategy = "complex"
)

// PageRequest describes one window of an ordered result set.
// PageIndex is zero-based.
type PageRequest struct {
	PageIndex int
	PageSize  int
	Sort      string
}

// Offset returns the number of rows skipped before the window starts.
func (r PageRequest) Offset() int {
	return r.PageIndex * r.PageSize
}

// Validate rejects requests that cannot describe a window, including those
// whose offset does not fit in an int.
func (r PageRequest) Validate() error {
	if r.PageSize <= 0 {
		return NewAppError(CodeInvalidPagination, fmt.Sprintf("page size must be positive, got %d", r.PageSize), nil)
	}
	if r.PageIndex < 0 {
		return NewAppError(CodeInvalidPagination, fmt.Sprintf("page index must not be negative, got %d", r.PageIndex), nil)
	}
	if r.PageIndex > math.MaxInt/r.PageSize {
		return NewAppError(CodeInvalidPagination, fmt.Sprintf("page index %d with size %d overflows the offset", r.PageIndex, r.PageSize), nil)
	}
	return nil
}

// Page is one window of results together with the size of the whole result set.
type Page[T any] struct {
	Content    []T          `json:"content"`
	Total      int64        `json:"total"`
	PageIndex  int          `json:"page"`
	PageSize   int          `json:"size"`
	Offset     int          `json:"offset"`
	TotalPages int          `json:"total_pages"`
	Strategy   PageStrategy `json:"strategy"`
}

// NewPage creates a Page with computed TotalPages. A nil content slice is
// replaced by an empty one so the JSON form is always an array.
func NewPage[T any](content []T, total int64, req PageRequest, strategy PageStrategy) *Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}

	return &Page[T]{
		Content:    content,
		Total:      total,
		PageIndex:  req.PageIndex,
		PageSize:   req.PageSize,
		Offset:     req.Offset(),
		TotalPages: totalPages,
		Strategy:   strategy,
	}
}
