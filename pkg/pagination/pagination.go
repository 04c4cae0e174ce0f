package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a page request after clamping.
type Params struct {
	Page  int
	Limit int
}

// Parse reads ?page and ?limit. Missing or malformed values fall back to
// the defaults and limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	p := Params{
		Page:  positive(c.Query("page"), DefaultPage),
		Limit: positive(c.Query("limit"), DefaultLimit),
	}
	p.Limit = min(p.Limit, MaxLimit)
	return p
}

// Pages is the number of pages needed for total items.
func (p Params) Pages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

func positive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
