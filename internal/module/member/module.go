package member

import "github.com/gin-gonic/gin"

// MemberModule implements the app.Module interface for members and teams.
type MemberModule struct {
	handler *MemberHandler
}

// NewModule creates a new MemberModule with the given handler.
// Panics if h is nil.
func NewModule(h *MemberHandler) *MemberModule {
	if h == nil {
		panic("member.NewModule: handler must not be nil")
	}
	return &MemberModule{handler: h}
}

// RegisterRoutes registers the team and member API routes.
func (m *MemberModule) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/teams", m.handler.CreateTeam)
	api.GET("/teams", m.handler.ListTeams)

	api.POST("/members", m.handler.CreateMember)
	api.GET("/members", m.handler.SearchPage)
	api.GET("/members/search", m.handler.Search)
	api.GET("/members/all", m.handler.ListAll)
	api.GET("/members/by-username/:username", m.handler.FindByUsername)
	api.GET("/members/:id", m.handler.Get)

	bulk := api.Group("/members/bulk")
	bulk.PATCH("/age", m.handler.BulkAddAge)
	bulk.PATCH("/username", m.handler.BulkRename)
	bulk.DELETE("", m.handler.BulkDelete)
}
