package pkg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/membersearch/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageDefaults bounds the paging query parameters of a list endpoint.
type PageDefaults struct {
	Size     int
	MaxSize  int
	Strategy domain.PageStrategy
}

// PageParams is what a paged list request asks for.
type PageParams struct {
	Request  domain.PageRequest
	Strategy string
}

// withFallbacks fills zero fields with the package defaults.
func (d PageDefaults) withFallbacks() PageDefaults {
	if d.Size <= 0 {
		d.Size = defaultPageSize
	}
	if d.MaxSize <= 0 {
		d.MaxSize = maxPageSize
	}
	if d.Size > d.MaxSize {
		d.Size = d.MaxSize
	}
	if d.Strategy == "" {
		d.Strategy = domain.StrategyComplex
	}
	return d
}

// ParsePageRequest extracts page, size, sort and strategy from query params.
//
// page is zero-based and defaults to 0; size defaults to d.Size and is
// clamped to d.MaxSize. Values that are present but not integers are
// rejected with an invalid pagination error. Negative or zero values are
// passed through so the searcher can reject them.
func ParsePageRequest(c *gin.Context, d PageDefaults) (PageParams, error) {
	d = d.withFallbacks()

	page, err := intQuery(c, "page", 0)
	if err != nil {
		return PageParams{}, err
	}

	size, err := intQuery(c, "size", d.Size)
	if err != nil {
		return PageParams{}, err
	}
	if size > d.MaxSize {
		size = d.MaxSize
	}

	strategy := strings.TrimSpace(c.Query("strategy"))
	if strategy == "" {
		strategy = string(d.Strategy)
	}

	return PageParams{
		Request: domain.PageRequest{
			PageIndex: page,
			PageSize:  size,
			Sort:      strings.TrimSpace(c.Query("sort")),
		},
		Strategy: strategy,
	}, nil
}

// intQuery reads an integer query parameter, returning def when it is absent.
func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.NewAppError(domain.CodeInvalidPagination, fmt.Sprintf("invalid %s %q", key, raw), err)
	}
	return n, nil
}
