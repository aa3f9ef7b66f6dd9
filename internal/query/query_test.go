package query

import (
	"reflect"
	"strings"
	"testing"

	"github.com/simp-lee/membersearch/internal/domain"
)

func TestSearchQuery_Statement(t *testing.T) {
	q := SearchQuery(domain.SearchCondition{TeamName: "teamA", AgeGoe: intPtr(10)})
	sql, args := q.Statement()

	want := "SELECT m.id AS member_id, m.username AS username, m.age AS age, t.id AS team_id, t.name AS team_name " +
		"FROM members AS m LEFT JOIN teams AS t ON t.id = m.team_id " +
		"WHERE t.name = ? AND m.age >= ? ORDER BY m.id ASC"
	if sql != want {
		t.Errorf("Statement() =\n%s\nwant\n%s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"teamA", 10}) {
		t.Errorf("args = %v", args)
	}
}

func TestSearchQuery_NoFilters(t *testing.T) {
	sql, args := SearchQuery(domain.SearchCondition{}).Statement()
	if strings.Contains(sql, "WHERE") {
		t.Errorf("unfiltered query has a WHERE clause: %s", sql)
	}
	if !strings.Contains(sql, "LEFT JOIN teams AS t") {
		t.Errorf("unfiltered query must still left join teams: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v; want none", args)
	}
}

func TestSearchQueryByBuilder_Equivalent(t *testing.T) {
	for _, c := range conditions() {
		listSQL, listArgs := SearchQuery(c).Statement()
		builderSQL, builderArgs := SearchQueryByBuilder(c).Statement()
		if listSQL != builderSQL || !reflect.DeepEqual(listArgs, builderArgs) {
			t.Errorf("condition %+v:\nlist    %s %v\nbuilder %s %v", c, listSQL, listArgs, builderSQL, builderArgs)
		}
	}
}

func TestCountQuery(t *testing.T) {
	tests := []struct {
		name     string
		cond     domain.SearchCondition
		wantJoin bool
		wantSQL  string
	}{
		{
			name:    "no filters",
			cond:    domain.SearchCondition{},
			wantSQL: "SELECT count(*) FROM members AS m",
		},
		{
			name:    "member filters only",
			cond:    domain.SearchCondition{Username: "member1", AgeGoe: intPtr(10), AgeLoe: intPtr(20)},
			wantSQL: "SELECT count(*) FROM members AS m WHERE m.username = ? AND m.age >= ? AND m.age <= ?",
		},
		{
			name:     "team filter",
			cond:     domain.SearchCondition{TeamName: "teamB"},
			wantJoin: true,
			wantSQL:  "SELECT count(*) FROM members AS m LEFT JOIN teams AS t ON t.id = m.team_id WHERE t.name = ?",
		},
		{
			name:    "blank team filter",
			cond:    domain.SearchCondition{TeamName: "  "},
			wantSQL: "SELECT count(*) FROM members AS m",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := CountQuery(tt.cond)
			if got := q.Joined(TeamTable); got != tt.wantJoin {
				t.Errorf("Joined(teams) = %v; want %v", got, tt.wantJoin)
			}
			if len(q.OrderBy) != 0 {
				t.Errorf("count query is ordered: %v", q.OrderBy)
			}
			if sql, _ := q.Statement(); sql != tt.wantSQL {
				t.Errorf("Statement() = %q; want %q", sql, tt.wantSQL)
			}
		})
	}
}

func TestQuery_WindowAndOrderedCopy(t *testing.T) {
	base := SearchQuery(domain.SearchCondition{})
	paged := base.Window(3, 3)

	if base.Offset != 0 || base.Limit != 0 {
		t.Errorf("Window mutated the original: offset=%d limit=%d", base.Offset, base.Limit)
	}
	sql, _ := paged.Statement()
	if !strings.HasSuffix(sql, "ORDER BY m.id ASC LIMIT 3 OFFSET 3") {
		t.Errorf("windowed statement = %s", sql)
	}

	reordered := base.Ordered("m.age DESC")
	reordered.OrderBy[0] = "changed"
	if base.OrderBy[0] != DefaultOrder {
		t.Errorf("Ordered shares its slice with the original: %v", base.OrderBy)
	}
}

func TestApplySort(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"", []string{DefaultOrder}},
		{"age:desc", []string{"m.age DESC", DefaultOrder}},
		{"AGE:Asc", []string{"m.age ASC", DefaultOrder}},
		{"team_name:asc", []string{"t.name ASC", DefaultOrder}},
		{"username:desc", []string{"m.username DESC", DefaultOrder}},
		{"id:desc", []string{"m.id DESC"}},
		{"password:asc", []string{DefaultOrder}},
		{"age:sideways", []string{DefaultOrder}},
		{"age", []string{DefaultOrder}},
		{"m.age; DROP TABLE members:asc", []string{DefaultOrder}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := ApplySort(SearchQuery(domain.SearchCondition{}), tt.spec).OrderBy
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ApplySort(%q) = %v; want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestBulkFilter(t *testing.T) {
	tests := []struct {
		name     string
		cond     domain.SearchCondition
		wantSQL  string
		wantArgs []any
	}{
		{"empty", domain.SearchCondition{}, "", nil},
		{"age bound", domain.SearchCondition{AgeGoe: intPtr(28)}, "age >= ?", []any{28}},
		{
			"team and username",
			domain.SearchCondition{Username: "member1", TeamName: "teamA"},
			"username = ? AND team_id IN (SELECT id FROM teams WHERE name = ?)",
			[]any{"member1", "teamA"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := BulkFilter(tt.cond)
			if sql != tt.wantSQL {
				t.Errorf("BulkFilter() = %q; want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v; want %v", args, tt.wantArgs)
			}
		})
	}
}
