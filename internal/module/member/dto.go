package member

import "github.com/simp-lee/membersearch/internal/domain"

// CreateTeamRequest represents the input for creating a team.
type CreateTeamRequest struct {
	Name string `json:"name" form:"name" binding:"required,max=100"`
}

// CreateMemberRequest represents the input for creating a member.
type CreateMemberRequest struct {
	Username string `json:"username" form:"username" binding:"max=100"`
	Age      int    `json:"age" form:"age" binding:"min=0"`
	TeamID   *uint  `json:"team_id" form:"team_id"`
}

// SearchRequest carries the optional search filters, from the query string
// or a JSON body.
type SearchRequest struct {
	Username string `json:"username" form:"username" binding:"max=100"`
	TeamName string `json:"team_name" form:"team_name" binding:"max=100"`
	AgeGoe   *int   `json:"age_goe" form:"age_goe"`
	AgeLoe   *int   `json:"age_loe" form:"age_loe"`
}

// Condition converts the request into a search condition.
func (r SearchRequest) Condition() domain.SearchCondition {
	return domain.SearchCondition{
		Username: r.Username,
		TeamName: r.TeamName,
		AgeGoe:   r.AgeGoe,
		AgeLoe:   r.AgeLoe,
	}
}

// BulkAgeRequest adds Delta to the age of every member matching Condition.
type BulkAgeRequest struct {
	Condition SearchRequest `json:"condition"`
	Delta     int           `json:"delta" binding:"required"`
}

// BulkRenameRequest renames every member matching Condition.
type BulkRenameRequest struct {
	Condition SearchRequest `json:"condition"`
	Username  string        `json:"username" binding:"required,max=100"`
}
