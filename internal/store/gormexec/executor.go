// Package gormexec executes composed member queries through GORM.
package gormexec

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/membersearch/internal/query"
)

// totalColumn carries the unwindowed row count alongside every content row.
const totalColumn = "COUNT(*) OVER () AS total_count"

// Executor runs query.Query values on a *gorm.DB. It is safe for
// concurrent use; each call starts a new session.
type Executor struct {
	db *gorm.DB
}

// New creates an Executor backed by db.
func New(db *gorm.DB) *Executor {
	return &Executor{db: db}
}

// windowedRecord is a content row scanned together with its window total.
type windowedRecord struct {
	query.Record
	TotalCount int64 `gorm:"column:total_count"`
}

// Execute runs q with its ordering and window.
func (e *Executor) Execute(ctx context.Context, q query.Query) ([]query.Record, error) {
	var records []query.Record
	err := e.content(ctx, q, strings.Join(q.Columns, ", ")).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ExecuteWithTotal fetches the window and the total in one statement using a
// COUNT(*) OVER () column. A window past the end returns no rows to carry the
// total, so that case falls back to a count query.
func (e *Executor) ExecuteWithTotal(ctx context.Context, q query.Query, offset, limit int) ([]query.Record, int64, error) {
	windowed := q.Window(offset, limit)
	columns := append(append([]string(nil), q.Columns...), totalColumn)

	var rows []windowedRecord
	if err := e.content(ctx, windowed, strings.Join(columns, ", ")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	if len(rows) == 0 {
		if offset == 0 {
			return nil, 0, nil
		}
		total, err := e.ExecuteCount(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		return nil, total, nil
	}

	records := make([]query.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record
	}
	return records, rows[0].TotalCount, nil
}

// ExecuteCount counts the rows q matches, ignoring its columns, ordering,
// and window.
func (e *Executor) ExecuteCount(ctx context.Context, q query.Query) (int64, error) {
	var total int64
	if err := e.source(ctx, q).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// source applies FROM, joins, and WHERE.
func (e *Executor) source(ctx context.Context, q query.Query) *gorm.DB {
	tx := e.db.WithContext(ctx).Table(q.From)
	for _, j := range q.Joins {
		tx = tx.Joins(j.Clause())
	}
	if where, args := q.Where.SQL(); where != "" {
		tx = tx.Where(where, args...)
	}
	return tx
}

// content applies the projection, ordering, and window on top of source.
func (e *Executor) content(ctx context.Context, q query.Query, columns string) *gorm.DB {
	tx := e.source(ctx, q)
	if columns != "" {
		tx = tx.Select(columns)
	}
	for _, o := range q.OrderBy {
		tx = tx.Order(o)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	return tx
}
