package member

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/membersearch/internal/domain"
	"github.com/simp-lee/membersearch/internal/pkg"
	"github.com/simp-lee/membersearch/internal/search"
)

// MemberHandler handles REST API requests for members and teams.
type MemberHandler struct {
	svc      domain.MemberService
	defaults pkg.PageDefaults
}

// NewMemberHandler creates a new MemberHandler. defaults bound the paging
// parameters of the paged search.
func NewMemberHandler(svc domain.MemberService, defaults pkg.PageDefaults) *MemberHandler {
	return &MemberHandler{svc: svc, defaults: defaults}
}

// CreateTeam handles POST /api/v1/teams.
func (h *MemberHandler) CreateTeam(c *gin.Context) {
	var req CreateTeamRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	team, err := h.svc.CreateTeam(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Created(c, team)
}

// ListTeams handles GET /api/v1/teams.
func (h *MemberHandler) ListTeams(c *gin.Context) {
	teams, err := h.svc.ListTeams(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Success(c, teams)
}

// CreateMember handles POST /api/v1/members.
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	member, err := h.svc.CreateMember(c.Request.Context(), req.Username, req.Age, req.TeamID)
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Created(c, member)
}

// Get handles GET /api/v1/members/:id.
func (h *MemberHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	member, err := h.svc.GetMember(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Success(c, member)
}

// ListAll handles GET /api/v1/members/all.
func (h *MemberHandler) ListAll(c *gin.Context) {
	members, err := h.svc.ListMembers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Success(c, members)
}

// FindByUsername handles GET /api/v1/members/by-username/:username.
func (h *MemberHandler) FindByUsername(c *gin.Context) {
	members, err := h.svc.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Success(c, members)
}

// Search handles GET /api/v1/members/search: every match, unpaged.
func (h *MemberHandler) Search(c *gin.Context) {
	var req SearchRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	rows, err := h.svc.SearchMembers(c.Request.Context(), req.Condition())
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Success(c, rows)
}

// SearchPage handles GET /api/v1/members?page=&size=&sort=&strategy=.
func (h *MemberHandler) SearchPage(c *gin.Context) {
	var req SearchRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	params, err := pkg.ParsePageRequest(c, h.defaults)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	strategy, err := search.ParseStrategy(params.Strategy)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	page, err := h.svc.SearchMembersPage(c.Request.Context(), req.Condition(), params.Request, strategy)
	if err != nil {
		fail(c, err)
		return
	}

	pkg.List(c, page)
}

// BulkAddAge handles PATCH /api/v1/members/bulk/age.
func (h *MemberHandler) BulkAddAge(c *gin.Context) {
	var req BulkAgeRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	n, err := h.svc.BulkAddAge(c.Request.Context(), req.Condition.Condition(), req.Delta)
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Affected(c, n)
}

// BulkRename handles PATCH /api/v1/members/bulk/username.
func (h *MemberHandler) BulkRename(c *gin.Context) {
	var req BulkRenameRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	n, err := h.svc.BulkRename(c.Request.Context(), req.Condition.Condition(), req.Username)
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Affected(c, n)
}

// BulkDelete handles DELETE /api/v1/members/bulk. The filters come from the
// query string.
func (h *MemberHandler) BulkDelete(c *gin.Context) {
	var req SearchRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	n, err := h.svc.BulkDelete(c.Request.Context(), req.Condition())
	if err != nil {
		fail(c, err)
		return
	}

	pkg.Affected(c, n)
}

// fail records err on the context for the request logger and renders it.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	pkg.Error(c, err)
}

// parseID extracts and validates the :id path parameter as a positive integer.
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

var errInvalidID = domain.NewAppError(domain.CodeValidation, "invalid id", nil)
