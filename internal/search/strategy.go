package search

import (
	"fmt"
	"strings"

	"github.com/simp-lee/membersearch/internal/domain"
)

// ParseStrategy maps a strategy name to a PageStrategy. The empty string
// selects the complex strategy.
func ParseStrategy(s string) (domain.PageStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(domain.StrategyComplex):
		return domain.StrategyComplex, nil
	case string(domain.StrategySimple):
		return domain.StrategySimple, nil
	default:
		return "", domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("invalid strategy %q: must be one of %q, %q", s, domain.StrategySimple, domain.StrategyComplex), nil)
	}
}

// knownTotal derives the total from the content window when the window
// proves it reached the end of the result set. A short first page holds
// everything; a short, non-empty later page ends at offset+n. An empty later
// page proves nothing, since the offset may lie past the end.
func knownTotal(offset, pageSize, n int) (int64, bool) {
	if n >= pageSize {
		return 0, false
	}
	if offset == 0 {
		return int64(n), true
	}
	if n > 0 {
		return int64(offset + n), true
	}
	return 0, false
}
