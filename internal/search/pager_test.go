package search

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/query"
)

// fakeExecutor serves a fixed row set, applying only the window of each query.
type fakeExecutor struct {
	rows     []query.Record
	err      error
	countErr error

	executeCalls   int
	withTotalCalls int
	countCalls     int
	lastQuery      query.Query
	lastCount      query.Query
}

func (f *fakeExecutor) Execute(_ context.Context, q query.Query) ([]query.Record, error) {
	f.executeCalls++
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.window(q.Offset, q.Limit), nil
}

func (f *fakeExecutor) ExecuteWithTotal(_ context.Context, q query.Query, offset, limit int) ([]query.Record, int64, error) {
	f.withTotalCalls++
	f.lastQuery = q
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.window(offset, limit), int64(len(f.rows)), nil
}

func (f *fakeExecutor) ExecuteCount(_ context.Context, q query.Query) (int64, error) {
	f.countCalls++
	f.lastCount = q
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.rows)), nil
}

func (f *fakeExecutor) window(offset, limit int) []query.Record {
	if offset >= len(f.rows) {
		return nil
	}
	end := len(f.rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return f.rows[offset:end]
}

// fixtureRecords mirrors teamA{member1(10), member2(20)}, teamB{member3(30), member4(40)}.
func fixtureRecords() []query.Record {
	var out []query.Record
	for i := 1; i <= 4; i++ {
		teamID, teamName := int64(1), "teamA"
		if i > 2 {
			teamID, teamName = 2, "teamB"
		}
		out = append(out, query.Record{
			MemberID: uint(i),
			Username: sql.NullString{String: fmt.Sprintf("member%d", i), Valid: true},
			Age:      i * 10,
			TeamID:   sql.NullInt64{Int64: teamID, Valid: true},
			TeamName: sql.NullString{String: teamName, Valid: true},
		})
	}
	return out
}

func usernames(rows []domain.MemberTeam) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Username != nil {
			out = append(out, *r.Username)
		}
	}
	return out
}

func TestSearch(t *testing.T) {
	exec := &fakeExecutor{rows: fixtureRecords()}
	s := NewSearcher(exec, nil)

	rows, err := s.Search(context.Background(), domain.SearchCondition{TeamName: "teamA"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("len = %d; want 4", len(rows))
	}
	if exec.lastQuery.Limit != 0 || exec.lastQuery.Offset != 0 {
		t.Errorf("unpaged search ran with a window: %+v", exec.lastQuery)
	}
	if !exec.lastQuery.Joined(query.TeamTable) {
		t.Error("search query must join teams")
	}
}

func TestSearch_EmptyResultIsNotNil(t *testing.T) {
	s := NewSearcher(&fakeExecutor{}, nil)
	rows, err := s.Search(context.Background(), domain.SearchCondition{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if rows == nil {
		t.Error("Search returned nil; want empty slice")
	}
}

func TestSearch_PropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	s := NewSearcher(&fakeExecutor{err: storeErr}, nil)

	_, err := s.Search(context.Background(), domain.SearchCondition{})
	if err != storeErr {
		t.Errorf("err = %v; want the store error unchanged", err)
	}
}

func TestSearchPage_InvalidPagination(t *testing.T) {
	tests := []struct {
		name string
		req  domain.PageRequest
	}{
		{"zero size", domain.PageRequest{PageIndex: 0, PageSize: 0}},
		{"negative size", domain.PageRequest{PageIndex: 0, PageSize: -1}},
		{"negative index", domain.PageRequest{PageIndex: -1, PageSize: 10}},
		{"offset overflow", domain.PageRequest{PageIndex: math.MaxInt / 2, PageSize: 4}},
	}
	for _, tt := range tests {
		for _, strategy := range []domain.PageStrategy{domain.StrategySimple, domain.StrategyComplex} {
			t.Run(tt.name+"/"+string(strategy), func(t *testing.T) {
				exec := &fakeExecutor{rows: fixtureRecords()}
				_, err := NewSearcher(exec, nil).SearchPage(context.Background(), domain.SearchCondition{}, tt.req, strategy)
				if !domain.IsInvalidPagination(err) {
					t.Fatalf("err = %v; want invalid pagination", err)
				}
				if calls := exec.executeCalls + exec.withTotalCalls + exec.countCalls; calls != 0 {
					t.Errorf("executor called %d times before validation failed", calls)
				}
			})
		}
	}
}

func TestSearchPage_SecondPageOfThree(t *testing.T) {
	for _, strategy := range []domain.PageStrategy{domain.StrategySimple, domain.StrategyComplex} {
		t.Run(string(strategy), func(t *testing.T) {
			exec := &fakeExecutor{rows: fixtureRecords()}
			page, err := NewSearcher(exec, nil).SearchPage(context.Background(),
				domain.SearchCondition{}, domain.PageRequest{PageIndex: 1, PageSize: 3}, strategy)
			if err != nil {
				t.Fatalf("SearchPage: %v", err)
			}
			if got := usernames(page.Content); !reflect.DeepEqual(got, []string{"member4"}) {
				t.Errorf("content = %v; want [member4]", got)
			}
			if page.Total != 4 {
				t.Errorf("total = %d; want 4", page.Total)
			}
			if page.Offset != 3 || page.PageSize != 3 || page.TotalPages != 2 {
				t.Errorf("page metadata = %+v", page)
			}
			if page.Strategy != strategy {
				t.Errorf("strategy = %q; want %q", page.Strategy, strategy)
			}
		})
	}
}

func TestSearchPage_StrategiesAgree(t *testing.T) {
	ctx := context.Background()
	for size := 1; size <= 5; size++ {
		for index := 0; index <= 5; index++ {
			req := domain.PageRequest{PageIndex: index, PageSize: size}

			simple, err := NewSearcher(&fakeExecutor{rows: fixtureRecords()}, nil).
				SearchPage(ctx, domain.SearchCondition{}, req, domain.StrategySimple)
			if err != nil {
				t.Fatalf("simple %+v: %v", req, err)
			}
			complexPage, err := NewSearcher(&fakeExecutor{rows: fixtureRecords()}, nil).
				SearchPage(ctx, domain.SearchCondition{}, req, domain.StrategyComplex)
			if err != nil {
				t.Fatalf("complex %+v: %v", req, err)
			}

			if !reflect.DeepEqual(simple.Content, complexPage.Content) {
				t.Errorf("%+v: content differs: simple %v, complex %v", req, usernames(simple.Content), usernames(complexPage.Content))
			}
			if simple.Total != complexPage.Total || simple.Total != 4 {
				t.Errorf("%+v: total simple=%d complex=%d; want 4", req, simple.Total, complexPage.Total)
			}
		}
	}
}

func TestSearchPage_ComplexCountShortCircuit(t *testing.T) {
	tests := []struct {
		name          string
		req           domain.PageRequest
		wantCount     bool
		wantTotal     int64
		wantContentSz int
	}{
		{"first page holds everything", domain.PageRequest{PageIndex: 0, PageSize: 10}, false, 4, 4},
		{"short last page", domain.PageRequest{PageIndex: 1, PageSize: 3}, false, 4, 1},
		{"full first page", domain.PageRequest{PageIndex: 0, PageSize: 4}, true, 4, 4},
		{"full middle page", domain.PageRequest{PageIndex: 0, PageSize: 2}, true, 4, 2},
		{"past the end", domain.PageRequest{PageIndex: 2, PageSize: 3}, true, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{rows: fixtureRecords()}
			page, err := NewSearcher(exec, nil).SearchPage(context.Background(), domain.SearchCondition{}, tt.req, domain.StrategyComplex)
			if err != nil {
				t.Fatalf("SearchPage: %v", err)
			}
			if ran := exec.countCalls > 0; ran != tt.wantCount {
				t.Errorf("count query ran = %v; want %v", ran, tt.wantCount)
			}
			if exec.withTotalCalls != 0 {
				t.Errorf("complex strategy used ExecuteWithTotal")
			}
			if page.Total != tt.wantTotal {
				t.Errorf("total = %d; want %d", page.Total, tt.wantTotal)
			}
			if len(page.Content) != tt.wantContentSz {
				t.Errorf("content size = %d; want %d", len(page.Content), tt.wantContentSz)
			}
		})
	}
}

func TestSearchPage_CountQueryShape(t *testing.T) {
	ctx := context.Background()
	req := domain.PageRequest{PageIndex: 0, PageSize: 1}

	exec := &fakeExecutor{rows: fixtureRecords()}
	if _, err := NewSearcher(exec, nil).SearchPage(ctx, domain.SearchCondition{Username: "member1"}, req, domain.StrategyComplex); err != nil {
		t.Fatalf("SearchPage: %v", err)
	}
	if exec.lastCount.Joined(query.TeamTable) {
		t.Error("count query joins teams without a team filter")
	}
	if len(exec.lastCount.OrderBy) != 0 {
		t.Errorf("count query is ordered: %v", exec.lastCount.OrderBy)
	}
	if !exec.lastQuery.Joined(query.TeamTable) {
		t.Error("content query must join teams")
	}

	exec = &fakeExecutor{rows: fixtureRecords()}
	if _, err := NewSearcher(exec, nil).SearchPage(ctx, domain.SearchCondition{TeamName: "teamA"}, req, domain.StrategyComplex); err != nil {
		t.Fatalf("SearchPage: %v", err)
	}
	if !exec.lastCount.Joined(query.TeamTable) {
		t.Error("count query must join teams when filtering by team name")
	}
}

func TestSearchPage_AppliesSortAndWindow(t *testing.T) {
	exec := &fakeExecutor{rows: fixtureRecords()}
	req := domain.PageRequest{PageIndex: 2, PageSize: 5, Sort: "age:desc"}
	if _, err := NewSearcher(exec, nil).SearchPage(context.Background(), domain.SearchCondition{}, req, domain.StrategyComplex); err != nil {
		t.Fatalf("SearchPage: %v", err)
	}

	want := []string{"m.age DESC", query.DefaultOrder}
	if !reflect.DeepEqual(exec.lastQuery.OrderBy, want) {
		t.Errorf("OrderBy = %v; want %v", exec.lastQuery.OrderBy, want)
	}
	if exec.lastQuery.Offset != 10 || exec.lastQuery.Limit != 5 {
		t.Errorf("window = offset %d limit %d; want 10, 5", exec.lastQuery.Offset, exec.lastQuery.Limit)
	}
}

func TestSearchPage_PropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("deadlock detected")
	ctx := context.Background()
	req := domain.PageRequest{PageIndex: 0, PageSize: 2}

	for _, strategy := range []domain.PageStrategy{domain.StrategySimple, domain.StrategyComplex} {
		_, err := NewSearcher(&fakeExecutor{rows: fixtureRecords(), err: storeErr}, nil).
			SearchPage(ctx, domain.SearchCondition{}, req, strategy)
		if err != storeErr {
			t.Errorf("%s: err = %v; want the store error unchanged", strategy, err)
		}
	}

	_, err := NewSearcher(&fakeExecutor{rows: fixtureRecords(), countErr: storeErr}, nil).
		SearchPage(ctx, domain.SearchCondition{}, req, domain.StrategyComplex)
	if err != storeErr {
		t.Errorf("count failure: err = %v; want the store error unchanged", err)
	}
}

func TestSearchPage_DefaultAndUnknownStrategy(t *testing.T) {
	exec := &fakeExecutor{rows: fixtureRecords()}
	page, err := NewSearcher(exec, nil).SearchPage(context.Background(), domain.SearchCondition{}, domain.PageRequest{PageSize: 10}, "")
	if err != nil {
		t.Fatalf("SearchPage: %v", err)
	}
	if page.Strategy != domain.StrategyComplex {
		t.Errorf("strategy = %q; want complex", page.Strategy)
	}

	for _, variant := range []domain.PageStrategy{"SIMPLE", " simple", "Complex "} {
		page, err := NewSearcher(&fakeExecutor{rows: fixtureRecords()}, nil).SearchPage(context.Background(),
			domain.SearchCondition{}, domain.PageRequest{PageSize: 3}, variant)
		if err != nil {
			t.Fatalf("SearchPage(%q): %v", variant, err)
		}
		if len(page.Content) != 3 || page.Total != 4 {
			t.Errorf("SearchPage(%q) = %d rows of %d; want 3 of 4", variant, len(page.Content), page.Total)
		}
		if page.Strategy != domain.StrategySimple && page.Strategy != domain.StrategyComplex {
			t.Errorf("SearchPage(%q) strategy = %q; want a normalized name", variant, page.Strategy)
		}
	}

	_, err = NewSearcher(&fakeExecutor{}, nil).SearchPage(context.Background(), domain.SearchCondition{}, domain.PageRequest{PageSize: 10}, "keyset")
	if !domain.IsValidation(err) {
		t.Errorf("err = %v; want validation error", err)
	}
}

func TestSearchPage_LogsStatementAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := NewSearcher(&fakeExecutor{rows: fixtureRecords()}, logger).SearchPage(context.Background(),
		domain.SearchCondition{TeamName: "teamA"}, domain.PageRequest{PageIndex: 1, PageSize: 1}, domain.StrategySimple)
	if err != nil {
		t.Fatalf("SearchPage: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"search query", "strategy=simple", "t.name = ?", "LIMIT 1 OFFSET 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestSearch_NoStatementLogAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if _, err := NewSearcher(&fakeExecutor{rows: fixtureRecords()}, logger).Search(context.Background(), domain.SearchCondition{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
