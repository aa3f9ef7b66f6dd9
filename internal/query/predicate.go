// Package query composes the member/team search statements.
//
// Filters arrive partially filled. Every filter becomes a Predicate that is
// either active or absent, and absent predicates are dropped before they are
// combined, so no combination step ever sees a missing operand.
package query

import (
	"fmt"
	"strings"
)

// Table aliases used throughout the composed statements.
const (
	AliasMember = "m"
	AliasTeam   = "t"
)

const (
	opEq  = "="
	opGoe = ">="
	opLoe = "<="
)

// Predicate is a single comparison on an aliased column, or the absent
// predicate. The zero value is absent.
type Predicate struct {
	alias  string
	column string
	op     string
	value  any
	active bool
}

// Absent returns the predicate that contributes nothing to a condition.
func Absent() Predicate {
	return Predicate{}
}

// Active reports whether the predicate filters anything.
func (p Predicate) Active() bool {
	return p.active
}

// Alias returns the table alias the predicate's column belongs to.
func (p Predicate) Alias() string {
	return p.alias
}

// Column returns the qualified column, e.g. "m.age".
func (p Predicate) Column() string {
	if !p.active {
		return ""
	}
	return p.alias + "." + p.column
}

// SQL renders the predicate as a placeholder expression and its argument.
// It must not be called on an absent predicate.
func (p Predicate) SQL() (string, any) {
	return p.Column() + " " + p.op + " ?", p.value
}

func (p Predicate) String() string {
	if !p.active {
		return "<absent>"
	}
	return fmt.Sprintf("%s %s %v", p.Column(), p.op, p.value)
}

// UsernameEq matches members by exact username. A blank name is absent.
func UsernameEq(username string) Predicate {
	return textEq(AliasMember, "username", username)
}

// TeamNameEq matches members whose team has exactly this name. A blank name
// is absent. Members without a team never match an active TeamNameEq.
func TeamNameEq(name string) Predicate {
	return textEq(AliasTeam, "name", name)
}

// AgeGoe matches members at least *age years old. A nil bound is absent.
func AgeGoe(age *int) Predicate {
	return bound(opGoe, age)
}

// AgeLoe matches members at most *age years old. A nil bound is absent.
func AgeLoe(age *int) Predicate {
	return bound(opLoe, age)
}

// textEq trims only to decide presence; the comparison uses value as given.
func textEq(alias, column, value string) Predicate {
	if strings.TrimSpace(value) == "" {
		return Absent()
	}
	return Predicate{alias: alias, column: column, op: opEq, value: value, active: true}
}

func bound(op string, age *int) Predicate {
	if age == nil {
		return Absent()
	}
	return Predicate{alias: AliasMember, column: "age", op: op, value: *age, active: true}
}
