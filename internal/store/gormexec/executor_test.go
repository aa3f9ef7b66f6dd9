package gormexec

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/query"
	"github.com/simp-lee/membersearch/internal/search"
)

func intPtr(v int) *int { return &v }

// setupFixtureDB creates an in-memory SQLite database holding
// teamA{member1(10), member2(20)} and teamB{member3(30), member4(40)}.
func setupFixtureDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Every pooled connection would otherwise see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&domain.Team{}, &domain.Member{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, teamName := range []string{"teamA", "teamB"} {
		team := domain.Team{Name: teamName}
		if err := db.Create(&team).Error; err != nil {
			t.Fatalf("create team: %v", err)
		}
	}
	for i := 1; i <= 4; i++ {
		teamID := uint(1)
		if i > 2 {
			teamID = 2
		}
		name := fmt.Sprintf("member%d", i)
		if err := db.Create(&domain.Member{Username: &name, Age: i * 10, TeamID: &teamID}).Error; err != nil {
			t.Fatalf("create member: %v", err)
		}
	}
	return db
}

func addOrphan(t *testing.T, db *gorm.DB, name string, age int) {
	t.Helper()
	if err := db.Create(&domain.Member{Username: &name, Age: age}).Error; err != nil {
		t.Fatalf("create orphan: %v", err)
	}
}

func names(rows []domain.MemberTeam) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Username != nil {
			out = append(out, *r.Username)
		}
	}
	return out
}

func sortedNames(rows []domain.MemberTeam) []string {
	out := names(rows)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearch_FixtureScenarios(t *testing.T) {
	db := setupFixtureDB(t)
	s := search.NewSearcher(New(db), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		cond domain.SearchCondition
		want []string
	}{
		{"age range", domain.SearchCondition{AgeGoe: intPtr(30), AgeLoe: intPtr(40)}, []string{"member3", "member4"}},
		{"team name", domain.SearchCondition{TeamName: "teamA"}, []string{"member1", "member2"}},
		{"username", domain.SearchCondition{Username: "member2"}, []string{"member2"}},
		{"team and age", domain.SearchCondition{TeamName: "teamB", AgeGoe: intPtr(35)}, []string{"member4"}},
		{"no filters", domain.SearchCondition{}, []string{"member1", "member2", "member3", "member4"}},
		{"conflicting bounds", domain.SearchCondition{AgeGoe: intPtr(40), AgeLoe: intPtr(10)}, []string{}},
		{"unknown team", domain.SearchCondition{TeamName: "teamZ"}, []string{}},
		{"padded username compared as given", domain.SearchCondition{Username: " member1 "}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Search(ctx, tt.cond)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got := sortedNames(rows); !equal(got, tt.want) {
				t.Errorf("Search(%+v) = %v; want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestSearch_Idempotent(t *testing.T) {
	s := search.NewSearcher(New(setupFixtureDB(t)), nil)
	ctx := context.Background()
	cond := domain.SearchCondition{AgeGoe: intPtr(15)}

	first, err := s.Search(ctx, cond)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := s.Search(ctx, cond)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !equal(sortedNames(first), sortedNames(second)) {
		t.Errorf("repeated search differs: %v vs %v", names(first), names(second))
	}
}

func TestSearch_MembersWithoutTeam(t *testing.T) {
	db := setupFixtureDB(t)
	addOrphan(t, db, "member5", 50)
	s := search.NewSearcher(New(db), nil)
	ctx := context.Background()

	rows, err := s.Search(ctx, domain.SearchCondition{AgeGoe: intPtr(45)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v; want member5 only", names(rows))
	}
	if rows[0].HasTeam() || rows[0].TeamName != nil {
		t.Errorf("orphan row = %+v; want no team", rows[0])
	}

	rows, err = s.Search(ctx, domain.SearchCondition{TeamName: "teamB"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := sortedNames(rows); !equal(got, []string{"member3", "member4"}) {
		t.Errorf("team filter = %v; want [member3 member4]", got)
	}
}

func TestSearchPage_BothStrategies(t *testing.T) {
	db := setupFixtureDB(t)
	s := search.NewSearcher(New(db), nil)
	ctx := context.Background()

	for _, strategy := range []domain.PageStrategy{domain.StrategySimple, domain.StrategyComplex} {
		t.Run(string(strategy), func(t *testing.T) {
			page, err := s.SearchPage(ctx, domain.SearchCondition{}, domain.PageRequest{PageIndex: 1, PageSize: 3}, strategy)
			if err != nil {
				t.Fatalf("SearchPage: %v", err)
			}
			if got := names(page.Content); !equal(got, []string{"member4"}) {
				t.Errorf("content = %v; want [member4]", got)
			}
			if page.Total != 4 {
				t.Errorf("total = %d; want 4", page.Total)
			}

			past, err := s.SearchPage(ctx, domain.SearchCondition{}, domain.PageRequest{PageIndex: 5, PageSize: 3}, strategy)
			if err != nil {
				t.Fatalf("SearchPage past end: %v", err)
			}
			if len(past.Content) != 0 || past.Total != 4 {
				t.Errorf("past end = %v total %d; want empty, total 4", names(past.Content), past.Total)
			}

			filtered, err := s.SearchPage(ctx, domain.SearchCondition{TeamName: "teamB"}, domain.PageRequest{PageIndex: 0, PageSize: 1, Sort: "age:desc"}, strategy)
			if err != nil {
				t.Fatalf("SearchPage filtered: %v", err)
			}
			if got := names(filtered.Content); !equal(got, []string{"member4"}) || filtered.Total != 2 {
				t.Errorf("filtered = %v total %d; want [member4] total 2", got, filtered.Total)
			}
		})
	}
}

func TestSearchPage_RequestEdges(t *testing.T) {
	db := setupFixtureDB(t)
	s := search.NewSearcher(New(db), nil)
	ctx := context.Background()

	for _, strategy := range []domain.PageStrategy{domain.StrategySimple, domain.StrategyComplex} {
		_, err := s.SearchPage(ctx, domain.SearchCondition{}, domain.PageRequest{PageIndex: math.MaxInt / 2, PageSize: 4}, strategy)
		if !domain.IsInvalidPagination(err) {
			t.Errorf("%s: overflowing offset err = %v; want invalid pagination", strategy, err)
		}
	}

	page, err := s.SearchPage(ctx, domain.SearchCondition{}, domain.PageRequest{PageSize: 3}, "SIMPLE")
	if err != nil {
		t.Fatalf("SearchPage(SIMPLE): %v", err)
	}
	if len(page.Content) != 3 || page.Total != 4 || page.Strategy != domain.StrategySimple {
		t.Errorf("SearchPage(SIMPLE) = %d rows, total %d, strategy %q; want 3, 4, simple", len(page.Content), page.Total, page.Strategy)
	}
}

func TestExecuteWithTotal_EmptyTable(t *testing.T) {
	db := setupFixtureDB(t)
	if err := db.Exec("DELETE FROM members").Error; err != nil {
		t.Fatalf("clear members: %v", err)
	}

	records, total, err := New(db).ExecuteWithTotal(context.Background(), query.SearchQuery(domain.SearchCondition{}), 0, 10)
	if err != nil {
		t.Fatalf("ExecuteWithTotal: %v", err)
	}
	if len(records) != 0 || total != 0 {
		t.Errorf("got %d records, total %d; want none", len(records), total)
	}
}

func TestExecuteCount_WithAndWithoutJoin(t *testing.T) {
	db := setupFixtureDB(t)
	addOrphan(t, db, "member5", 50)
	exec := New(db)
	ctx := context.Background()

	tests := []struct {
		cond domain.SearchCondition
		want int64
	}{
		{domain.SearchCondition{}, 5},
		{domain.SearchCondition{AgeLoe: intPtr(20)}, 2},
		{domain.SearchCondition{TeamName: "teamA"}, 2},
	}
	for _, tt := range tests {
		got, err := exec.ExecuteCount(ctx, query.CountQuery(tt.cond))
		if err != nil {
			t.Fatalf("ExecuteCount(%+v): %v", tt.cond, err)
		}
		if got != tt.want {
			t.Errorf("ExecuteCount(%+v) = %d; want %d", tt.cond, got, tt.want)
		}
	}
}
