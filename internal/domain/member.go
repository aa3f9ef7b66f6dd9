package domain

import "context"

// Team groups members. Names are indexed but not unique.
type Team struct {
	BaseModel
	Name    string   `gorm:"size:100;not null;index" json:"name"`
	Members []Member `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TableName pins the table name used by the search queries.
func (Team) TableName() string { return "teams" }

// Member belongs to at most one Team.
type Member struct {
	BaseModel
	Username *string `gorm:"size:100;index" json:"username"`
	Age      int     `gorm:"not null;default:0" json:"age"`
	TeamID   *uint   `gorm:"index" json:"team_id"`
	Team     *Team   `gorm:"constraint:OnDelete:SET NULL" json:"team,omitempty"`
}

// TableName pins the table name used by the search queries.
func (Member) TableName() string { return "members" }

// SearchCondition carries the optional member search filters.
// Blank strings and nil bounds mean "do not filter on this field".
// AgeGoe greater than AgeLoe is a valid condition that matches nothing.
type SearchCondition struct {
	Username string `form:"username" json:"username"`
	TeamName string `form:"team_name" json:"team_name"`
	AgeGoe   *int   `form:"age_goe" json:"age_goe"`
	AgeLoe   *int   `form:"age_loe" json:"age_loe"`
}

// MemberTeam is one search result row: a member joined with its team.
// TeamID and TeamName are both nil when the member has no team.
type MemberTeam struct {
	MemberID uint    `json:"member_id"`
	Username *string `json:"username"`
	Age      int     `json:"age"`
	TeamID   *uint   `json:"team_id"`
	TeamName *string `json:"team_name"`
}

// HasTeam reports whether the row was joined to a team.
func (r MemberTeam) HasTeam() bool {
	return r.TeamID != nil
}

// MemberSearcher runs condition-driven searches over members and their teams.
type MemberSearcher interface {
	Search(ctx context.Context, cond SearchCondition) ([]MemberTeam, error)
	SearchPage(ctx context.Context, cond SearchCondition, req PageRequest, strategy PageStrategy) (*Page[MemberTeam], error)
}

// TeamRepository defines the data access interface for teams.
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id uint) (*Team, error)
	List(ctx context.Context) ([]Team, error)
}

// MemberRepository defines the data access interface for members.
// The bulk operations each run as a single statement and report the number
// of rows affected.
type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id uint) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	FindByUsername(ctx context.Context, username string) ([]Member, error)
	BulkAddAge(ctx context.Context, cond SearchCondition, delta int) (int64, error)
	BulkRename(ctx context.Context, cond SearchCondition, username string) (int64, error)
	BulkDelete(ctx context.Context, cond SearchCondition) (int64, error)
}

// MemberService defines the business logic interface for members and teams.
type MemberService interface {
	CreateTeam(ctx context.Context, name string) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	CreateMember(ctx context.Context, username string, age int, teamID *uint) (*Member, error)
	GetMember(ctx context.Context, id uint) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	FindByUsername(ctx context.Context, username string) ([]Member, error)
	SearchMembers(ctx context.Context, cond SearchCondition) ([]MemberTeam, error)
	SearchMembersPage(ctx context.Context, cond SearchCondition, req PageRequest, strategy PageStrategy) (*Page[MemberTeam], error)
	BulkAddAge(ctx context.Context, cond SearchCondition, delta int) (int64, error)
	BulkRename(ctx context.Context, cond SearchCondition, username string) (int64, error)
	BulkDelete(ctx context.Context, cond SearchCondition) (int64, error)
}
