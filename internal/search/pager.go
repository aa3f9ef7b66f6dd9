package search

import (
	"context"
	"log/slog"

	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/query"
)

// Searcher implements domain.MemberSearcher over an Executor. It holds no
// per-call state and is safe for concurrent use when the Executor is.
type Searcher struct {
	exec   Executor
	logger *slog.Logger
}

// NewSearcher creates a Searcher. A nil logger falls back to slog.Default().
func NewSearcher(exec Executor, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{exec: exec, logger: logger}
}

// Search returns every member matching cond in insertion order.
func (s *Searcher) Search(ctx context.Context, cond domain.SearchCondition) ([]domain.MemberTeam, error) {
	q := query.SearchQuery(cond)
	s.logQuery(ctx, q)
	records, err := s.exec.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	return query.Project(records), nil
}

// SearchPage returns one window of the members matching cond along with the
// total number of matches. The request is validated before any query runs.
// The strategy name is normalized by ParseStrategy; an empty one selects the
// complex strategy.
func (s *Searcher) SearchPage(ctx context.Context, cond domain.SearchCondition, req domain.PageRequest, strategy domain.PageStrategy) (*domain.Page[domain.MemberTeam], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	strategy, err := ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}

	content := query.ApplySort(query.SearchQuery(cond), req.Sort)
	offset, limit := req.Offset(), req.PageSize
	s.logQuery(ctx, content.Window(offset, limit), slog.String("strategy", string(strategy)))

	var (
		records []query.Record
		total   int64
	)
	switch strategy {
	case domain.StrategySimple:
		records, total, err = s.exec.ExecuteWithTotal(ctx, content, offset, limit)
	default:
		records, total, err = s.complexPage(ctx, cond, content, offset, limit)
	}
	if err != nil {
		return nil, err
	}

	return domain.NewPage(query.Project(records), total, req, strategy), nil
}

// complexPage fetches the window and then counts separately, skipping the
// count when the window already determines the total.
func (s *Searcher) complexPage(ctx context.Context, cond domain.SearchCondition, content query.Query, offset, limit int) ([]query.Record, int64, error) {
	records, err := s.exec.Execute(ctx, content.Window(offset, limit))
	if err != nil {
		return nil, 0, err
	}

	if total, ok := knownTotal(offset, limit, len(records)); ok {
		s.logger.DebugContext(ctx, "count query skipped",
			slog.Int("offset", offset),
			slog.Int("limit", limit),
			slog.Int64("total", total),
		)
		return records, total, nil
	}

	total, err := s.exec.ExecuteCount(ctx, query.CountQuery(cond))
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// logQuery writes the rendered statement at debug level.
func (s *Searcher) logQuery(ctx context.Context, q query.Query, attrs ...slog.Attr) {
	if !s.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	stmt, args := q.Statement()
	attrs = append(attrs, slog.String("sql", stmt), slog.Any("args", args))
	s.logger.LogAttrs(ctx, slog.LevelDebug, "search query", attrs...)
}
