package query

import (
	"database/sql"

	"github.com/simp-lee/membersearch/internal/domain"
)

// Record is one scanned row of the member/team projection. The team
// columns come from a left join and are NULL for members without a team.
type Record struct {
	MemberID uint           `gorm:"column:member_id" bun:"member_id"`
	Username sql.NullString `gorm:"column:username" bun:"username"`
	Age      int            `gorm:"column:age" bun:"age"`
	TeamID   sql.NullInt64  `gorm:"column:team_id" bun:"team_id"`
	TeamName sql.NullString `gorm:"column:team_name" bun:"team_name"`
}

// MemberTeam converts r into its result form. NULL columns become nil.
func (r Record) MemberTeam() domain.MemberTeam {
	row := domain.MemberTeam{
		MemberID: r.MemberID,
		Age:      r.Age,
	}
	if r.Username.Valid {
		username := r.Username.String
		row.Username = &username
	}
	if r.TeamID.Valid {
		teamID := uint(r.TeamID.Int64)
		row.TeamID = &teamID
	}
	if r.TeamName.Valid {
		teamName := r.TeamName.String
		row.TeamName = &teamName
	}
	return row
}

// Project converts scanned rows into results, preserving order. It never
// returns nil.
func Project(records []Record) []domain.MemberTeam {
	rows := make([]domain.MemberTeam, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.MemberTeam())
	}
	return rows
}
