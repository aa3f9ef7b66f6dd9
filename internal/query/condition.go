package query

import (
	"strings"

	"github.com/simp-lee/membersearch/internal/domain"
)

// Condition is an immutable AND of active predicates. The zero value is the
// empty condition, which places no WHERE clause on a query.
type Condition struct {
	preds []Predicate
}

// And combines the active predicates among preds. Absent predicates are
// dropped first; with none left the result is the empty condition.
func And(preds ...Predicate) Condition {
	var active []Predicate
	for _, p := range preds {
		if p.Active() {
			active = append(active, p)
		}
	}
	return Condition{preds: active}
}

// And returns a new condition extended with p. An absent p returns c unchanged.
func (c Condition) And(p Predicate) Condition {
	if !p.Active() {
		return c
	}
	next := make([]Predicate, len(c.preds), len(c.preds)+1)
	copy(next, c.preds)
	return Condition{preds: append(next, p)}
}

// Empty reports whether the condition matches every row.
func (c Condition) Empty() bool {
	return len(c.preds) == 0
}

// Predicates returns a copy of the active predicates in the order they were added.
func (c Condition) Predicates() []Predicate {
	out := make([]Predicate, len(c.preds))
	copy(out, c.preds)
	return out
}

// References reports whether any predicate filters on a column of alias.
func (c Condition) References(alias string) bool {
	for _, p := range c.preds {
		if p.Alias() == alias {
			return true
		}
	}
	return false
}

// SQL renders the condition as "a AND b ..." with positional arguments.
// The empty condition renders as an empty string with no arguments.
func (c Condition) SQL() (string, []any) {
	if c.Empty() {
		return "", nil
	}
	parts := make([]string, 0, len(c.preds))
	args := make([]any, 0, len(c.preds))
	for _, p := range c.preds {
		expr, arg := p.SQL()
		parts = append(parts, expr)
		args = append(args, arg)
	}
	return strings.Join(parts, " AND "), args
}

func (c Condition) String() string {
	if c.Empty() {
		return "<all>"
	}
	parts := make([]string, 0, len(c.preds))
	for _, p := range c.preds {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " AND ")
}

// AgeBetween combines optional age bounds. When one side is missing the
// result is the other side alone; when both are missing it is empty.
// Bounds with goe > loe are kept as given and simply match nothing.
func AgeBetween(goe, loe *int) Condition {
	return And(AgeGoe(goe), AgeLoe(loe))
}

// MemberPredicates maps a search condition onto its predicates in a fixed
// order: username, team name, lower age bound, upper age bound.
func MemberPredicates(cond domain.SearchCondition) []Predicate {
	return []Predicate{
		UsernameEq(cond.Username),
		TeamNameEq(cond.TeamName),
		AgeGoe(cond.AgeGoe),
		AgeLoe(cond.AgeLoe),
	}
}
