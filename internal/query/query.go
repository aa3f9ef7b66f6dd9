package query

import (
	"strconv"
	"strings"
)

// Join is one join clause, e.g. LEFT JOIN teams AS t ON t.id = m.team_id.
type Join struct {
	Kind  string
	Table string
	On    string
}

// Clause renders the join as SQL.
func (j Join) Clause() string {
	return j.Kind + " " + j.Table + " ON " + j.On
}

// Query is a dialect-neutral SELECT description that the store executors
// translate into their own builders. Limit 0 means unbounded.
type Query struct {
	Columns []string
	From    string
	Joins   []Join
	Where   Condition
	OrderBy []string
	Offset  int
	Limit   int
}

// Window returns a copy of q restricted to limit rows starting at offset.
func (q Query) Window(offset, limit int) Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// Ordered returns a copy of q with its ordering replaced.
func (q Query) Ordered(order ...string) Query {
	q.OrderBy = append([]string(nil), order...)
	return q
}

// Joined reports whether q joins table (matched on the full "name AS alias" form).
func (q Query) Joined(table string) bool {
	for _, j := range q.Joins {
		if j.Table == table {
			return true
		}
	}
	return false
}

// Statement renders q as a single SQL string with ? placeholders. Executors
// do not use it; it backs logging and tests.
func (q Query) Statement() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		sb.WriteString("count(*)")
	} else {
		sb.WriteString(strings.Join(q.Columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(q.From)
	for _, j := range q.Joins {
		sb.WriteString(" ")
		sb.WriteString(j.Clause())
	}

	where, args := q.Where.SQL()
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(q.OrderBy, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(q.Offset))
	}
	return sb.String(), args
}
