package query

import (
	"strings"

	"github.com/simp-lee/membersearch/internal/domain"
)

const (
	// MemberTable is the aliased source of every member query.
	MemberTable = "members AS m"
	// TeamTable is the aliased team relation.
	TeamTable = "teams AS t"

	// DefaultOrder keeps results in insertion order.
	DefaultOrder = "m.id ASC"
)

// TeamJoin keeps members without a team in the result.
var TeamJoin = Join{Kind: "LEFT JOIN", Table: TeamTable, On: "t.id = m.team_id"}

// MemberTeamColumns is the projection scanned into Record.
var MemberTeamColumns = []string{
	"m.id AS member_id",
	"m.username AS username",
	"m.age AS age",
	"t.id AS team_id",
	"t.name AS team_name",
}

// SearchQuery builds the member/team search for cond. The team join is
// always present because the projection reads team columns.
func SearchQuery(cond domain.SearchCondition) Query {
	return memberTeamQuery(And(MemberPredicates(cond)...))
}

// SearchQueryByBuilder builds the same query as SearchQuery by feeding the
// predicates through a Builder one at a time.
func SearchQueryByBuilder(cond domain.SearchCondition) Query {
	b := NewBuilder()
	for _, p := range MemberPredicates(cond) {
		b.And(p)
	}
	return memberTeamQuery(b.Condition())
}

// CountQuery builds the total-count query for cond. It carries no ordering
// and joins teams only when a team column is filtered on, since equality and
// range filters on members do not change the row count of a left join that
// matches at most one team per member.
func CountQuery(cond domain.SearchCondition) Query {
	where := And(MemberPredicates(cond)...)
	q := Query{From: MemberTable, Where: where}
	if where.References(AliasTeam) {
		q.Joins = []Join{TeamJoin}
	}
	return q
}

func memberTeamQuery(where Condition) Query {
	return Query{
		Columns: append([]string(nil), MemberTeamColumns...),
		From:    MemberTable,
		Joins:   []Join{TeamJoin},
		Where:   where,
		OrderBy: []string{DefaultOrder},
	}
}

// BulkFilter renders cond against the bare members table for single-statement
// UPDATE and DELETE. Team filters become a subquery on teams so the statement
// needs no join. The empty condition renders as an empty string.
func BulkFilter(cond domain.SearchCondition) (string, []any) {
	where := And(MemberPredicates(cond)...)
	if where.Empty() {
		return "", nil
	}

	parts := make([]string, 0, len(where.preds))
	args := make([]any, 0, len(where.preds))
	for _, p := range where.preds {
		expr := p.column + " " + p.op + " ?"
		if p.alias == AliasTeam {
			expr = "team_id IN (SELECT id FROM teams WHERE " + expr + ")"
		}
		parts = append(parts, expr)
		args = append(args, p.value)
	}
	return strings.Join(parts, " AND "), args
}
