package member

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/membersearch/internal/domain"
)

const maxNameLength = 100

// memberService implements domain.MemberService.
type memberService struct {
	members  domain.MemberRepository
	teams    domain.TeamRepository
	searcher domain.MemberSearcher
}

// NewMemberService creates a new MemberService. CRUD goes through the
// repositories, searches through searcher.
func NewMemberService(members domain.MemberRepository, teams domain.TeamRepository, searcher domain.MemberSearcher) domain.MemberService {
	return &memberService{members: members, teams: teams, searcher: searcher}
}

// CreateTeam validates the name and persists a new team.
func (s *memberService) CreateTeam(ctx context.Context, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if err := validateName("team name", name); err != nil {
		return nil, err
	}

	team := &domain.Team{Name: name}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// ListTeams returns every team.
func (s *memberService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return s.teams.List(ctx)
}

// CreateMember persists a new member. A blank username is stored as absent;
// a non-nil teamID must name an existing team.
func (s *memberService) CreateMember(ctx context.Context, username string, age int, teamID *uint) (*domain.Member, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) > maxNameLength {
		return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("username must be at most %d characters", maxNameLength), nil)
	}
	if age < 0 {
		return nil, domain.NewAppError(domain.CodeValidation, "age must not be negative", nil)
	}

	member := &domain.Member{Age: age}
	if username != "" {
		member.Username = &username
	}

	if teamID != nil {
		team, err := s.teams.GetByID(ctx, *teamID)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, domain.NewAppError(domain.CodeValidation, fmt.Sprintf("team %d does not exist", *teamID), nil)
			}
			return nil, err
		}
		member.TeamID = &team.ID
	}

	if err := s.members.Create(ctx, member); err != nil {
		return nil, err
	}
	return s.members.GetByID(ctx, member.ID)
}

// GetMember retrieves a member by ID.
func (s *memberService) GetMember(ctx context.Context, id uint) (*domain.Member, error) {
	return s.members.GetByID(ctx, id)
}

// ListMembers returns every member.
func (s *memberService) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return s.members.List(ctx)
}

// FindByUsername returns the members with exactly this username.
func (s *memberService) FindByUsername(ctx context.Context, username string) ([]domain.Member, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewAppError(domain.CodeValidation, "username is required", nil)
	}
	return s.members.FindByUsername(ctx, username)
}

// SearchMembers returns every member matching cond.
func (s *memberService) SearchMembers(ctx context.Context, cond domain.SearchCondition) ([]domain.MemberTeam, error) {
	return s.searcher.Search(ctx, cond)
}

// SearchMembersPage returns one page of the members matching cond.
func (s *memberService) SearchMembersPage(ctx context.Context, cond domain.SearchCondition, req domain.PageRequest, strategy domain.PageStrategy) (*domain.Page[domain.MemberTeam], error) {
	return s.searcher.SearchPage(ctx, cond, req, strategy)
}

// BulkAddAge adds delta to the age of every matching member.
func (s *memberService) BulkAddAge(ctx context.Context, cond domain.SearchCondition, delta int) (int64, error) {
	if delta == 0 {
		return 0, domain.NewAppError(domain.CodeValidation, "delta must not be zero", nil)
	}
	return s.members.BulkAddAge(ctx, cond, delta)
}

// BulkRename sets the username of every matching member.
func (s *memberService) BulkRename(ctx context.Context, cond domain.SearchCondition, username string) (int64, error) {
	username = strings.TrimSpace(username)
	if err := validateName("username", username); err != nil {
		return 0, err
	}
	return s.members.BulkRename(ctx, cond, username)
}

// BulkDelete removes every matching member. The repository rejects an
// empty condition.
func (s *memberService) BulkDelete(ctx context.Context, cond domain.SearchCondition) (int64, error) {
	return s.members.BulkDelete(ctx, cond)
}

// validateName checks that a trimmed name is present and not too long.
func validateName(field, name string) error {
	if name == "" {
		return domain.NewAppError(domain.CodeValidation, field+" is required", nil)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return domain.NewAppError(domain.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, maxNameLength), nil)
	}
	return nil
}
