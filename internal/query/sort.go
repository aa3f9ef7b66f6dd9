package query

import "strings"

// sortColumns maps the public sort keys onto qualified columns.
var sortColumns = map[string]string{
	"id":        "m.id",
	"username":  "m.username",
	"age":       "m.age",
	"team_name": "t.name",
}

// SortFields lists the accepted sort keys.
func SortFields() []string {
	return []string{"id", "username", "age", "team_name"}
}

// ApplySort orders q by a "field:direction" spec such as "age:desc".
// Unknown fields, bad directions, and malformed specs leave q unchanged.
// Any field other than id gets an m.id tie-breaker so paging is stable.
func ApplySort(q Query, spec string) Query {
	field, direction, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok {
		return q
	}

	field = strings.ToLower(strings.TrimSpace(field))
	direction = strings.ToUpper(strings.TrimSpace(direction))
	if direction != "ASC" && direction != "DESC" {
		return q
	}

	column, ok := sortColumns[field]
	if !ok {
		return q
	}

	if column == "m.id" {
		return q.Ordered(column + " " + direction)
	}
	return q.Ordered(column+" "+direction, DefaultOrder)
}
