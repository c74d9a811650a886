package controllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type listParams struct {
	All     bool
	Limit   int
	Page    int
	SortBy  string
	SortDir string
}

// parseListParams reads all, limit, page, sort_by and sort_dir the same way
// for every list endpoint.
func parseListParams(c *gin.Context, defaultSort string) listParams {
	p := listParams{
		All:     strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1",
		Limit:   20,
		Page:    1,
		SortBy:  strings.ToLower(c.DefaultQuery("sort_by", defaultSort)),
		SortDir: strings.ToUpper(c.DefaultQuery("sort_dir", "ASC")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if p.SortDir != "ASC" && p.SortDir != "DESC" {
		p.SortDir = "ASC"
	}
	return p
}

func (p listParams) meta(total int64) gin.H {
	meta := gin.H{"total": total, "all": p.All}
	if !p.All {
		meta["limit"] = p.Limit
		meta["page"] = p.Page
		meta["sort_by"] = p.SortBy
		meta["sort_dir"] = p.SortDir
	}
	return meta
}
