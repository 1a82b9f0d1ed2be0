package echoapi

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

var (
	pageParam  = "page"
	limitParam = "limit"

	maxPageLimit = 100
)

type Pagination struct {
	Page  int
	Limit int
}

func (p *Pagination) Bind(ctx echo.Context) {
	p.Page, p.Limit = 1, 10
	if v, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil && v > 0 {
		if v > maxPageLimit {
			v = maxPageLimit
		}
		p.Limit = v
	}
}

type paginationInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPaginationInfo(p Pagination, total int) paginationInfo {
	return paginationInfo{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}
