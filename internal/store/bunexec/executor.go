// Package bunexec executes composed member queries through bun.
package bunexec

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/simp-lee/membersearch/internal/query"
)

// Executor runs query.Query values on a bun database or transaction.
type Executor struct {
	db bun.IDB
}

// New creates an Executor backed by db.
func New(db bun.IDB) *Executor {
	return &Executor{db: db}
}

// Execute runs q with its ordering and window.
func (e *Executor) Execute(ctx context.Context, q query.Query) ([]query.Record, error) {
	var records []query.Record
	if err := e.content(q).Scan(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ExecuteWithTotal fetches the window with ScanAndCount, which issues the
// content and count statements together and returns the unwindowed total.
func (e *Executor) ExecuteWithTotal(ctx context.Context, q query.Query, offset, limit int) ([]query.Record, int64, error) {
	var records []query.Record
	total, err := e.content(q.Window(offset, limit)).ScanAndCount(ctx, &records)
	if err != nil {
		return nil, 0, err
	}
	return records, int64(total), nil
}

// ExecuteCount counts the rows q matches, ignoring its columns, ordering,
// and window.
func (e *Executor) ExecuteCount(ctx context.Context, q query.Query) (int64, error) {
	total, err := e.source(q).Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(total), nil
}

func (e *Executor) source(q query.Query) *bun.SelectQuery {
	sq := e.db.NewSelect().TableExpr(q.From)
	for _, j := range q.Joins {
		sq = sq.Join(j.Clause())
	}
	if where, args := q.Where.SQL(); where != "" {
		sq = sq.Where(where, args...)
	}
	return sq
}

func (e *Executor) content(q query.Query) *bun.SelectQuery {
	sq := e.source(q)
	if len(q.Columns) > 0 {
		sq = sq.ColumnExpr(strings.Join(q.Columns, ", "))
	}
	for _, o := range q.OrderBy {
		sq = sq.OrderExpr(o)
	}
	if q.Limit > 0 {
		sq = sq.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sq = sq.Offset(q.Offset)
	}
	return sq
}
