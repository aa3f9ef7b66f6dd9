package member

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/query"
)

// teamRepository implements domain.TeamRepository using GORM.
type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository backed by the given GORM database.
func NewTeamRepository(db *gorm.DB) domain.TeamRepository {
	return &teamRepository{db: db}
}

// Create inserts a new team.
func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves a team by its primary key.
func (r *teamRepository) GetByID(ctx context.Context, id uint) (*domain.Team, error) {
	var team domain.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &team, nil
}

// List returns every team in insertion order.
func (r *teamRepository) List(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&teams).Error; err != nil {
		return nil, mapError(err)
	}
	return teams, nil
}

// memberRepository implements domain.MemberRepository using GORM.
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository backed by the given GORM database.
func NewMemberRepository(db *gorm.DB) domain.MemberRepository {
	return &memberRepository{db: db}
}

// Create inserts a new member.
func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	if err := r.db.WithContext(ctx).Omit("Team").Create(member).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves a member and its team by the member's primary key.
func (r *memberRepository) GetByID(ctx context.Context, id uint) (*domain.Member, error) {
	var member domain.Member
	if err := r.db.WithContext(ctx).Preload("Team").First(&member, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &member, nil
}

// List returns every member with its team in insertion order.
func (r *memberRepository) List(ctx context.Context) ([]domain.Member, error) {
	var members []domain.Member
	if err := r.db.WithContext(ctx).Preload("Team").Order("id ASC").Find(&members).Error; err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// FindByUsername returns the members whose username equals username exactly.
func (r *memberRepository) FindByUsername(ctx context.Context, username string) ([]domain.Member, error) {
	var members []domain.Member
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("username = ?", username).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// BulkAddAge adds delta to the age of every member matching cond.
func (r *memberRepository) BulkAddAge(ctx context.Context, cond domain.SearchCondition, delta int) (int64, error) {
	result := r.bulk(ctx, cond).Update("age", gorm.Expr("age + ?", delta))
	if result.Error != nil {
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

// BulkRename sets the username of every member matching cond.
func (r *memberRepository) BulkRename(ctx context.Context, cond domain.SearchCondition, username string) (int64, error) {
	result := r.bulk(ctx, cond).Update("username", username)
	if result.Error != nil {
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

// BulkDelete removes every member matching cond. An empty condition is
// rejected rather than deleting the whole table.
func (r *memberRepository) BulkDelete(ctx context.Context, cond domain.SearchCondition) (int64, error) {
	where, args := query.BulkFilter(cond)
	if where == "" {
		return 0, errEmptyDeleteCondition
	}

	result := r.db.WithContext(ctx).Where(where, args...).Delete(&domain.Member{})
	if result.Error != nil {
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

// bulk scopes a single-statement update to the members matching cond.
// The empty condition matches every member.
func (r *memberRepository) bulk(ctx context.Context, cond domain.SearchCondition) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&domain.Member{})
	where, args := query.BulkFilter(cond)
	if where == "" {
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	return tx.Where(where, args...)
}

var errEmptyDeleteCondition = domain.NewAppError(domain.CodeValidation, "bulk delete requires at least one filter", nil)

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyError(err) {
		return domain.NewAppError(domain.CodeValidation, "referenced team does not exist", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not all GORM dialectors translate driver-level errors to
// gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

func isForeignKeyError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
