// Package search runs member/team searches through a store Executor and
// assembles paged results.
package search

import (
	"context"

	"github.com/simp-lee/membersearch/internal/query"
)

// Executor runs composed queries against a store. Implementations return
// store errors as they receive them.
type Executor interface {
	// Execute returns the rows of q, honoring its window and ordering.
	Execute(ctx context.Context, q query.Query) ([]query.Record, error)
	// ExecuteWithTotal returns the rows of q within [offset, offset+limit)
	// together with the number of rows q matches without a window.
	ExecuteWithTotal(ctx context.Context, q query.Query, offset, limit int) ([]query.Record, int64, error)
	// ExecuteCount returns the number of rows q matches. Columns, ordering,
	// and window of q are ignored.
	ExecuteCount(ctx context.Context, q query.Query) (int64, error)
}
