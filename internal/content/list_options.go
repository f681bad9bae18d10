package content

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListOptions filters and paginates a listing. PerPage 0 uses the default,
// a negative PerPage returns every row.
type ListOptions struct {
	Query      string
	Homepage   *bool
	ActiveOnly bool
	Page       int
	PerPage    int
}

// ListResult is one page of records ordered by position.
type ListResult[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

type listPlan struct {
	query      string
	homepage   *bool
	activeOnly bool
	page       int
	perPage    int
	all        bool
}

func planList(opts ListOptions) listPlan {
	plan := listPlan{
		query:      strings.TrimSpace(opts.Query),
		homepage:   opts.Homepage,
		activeOnly: opts.ActiveOnly,
		page:       opts.Page,
		perPage:    opts.PerPage,
	}
	switch {
	case plan.perPage < 0:
		plan.all = true
		plan.perPage = 0
	case plan.perPage == 0:
		plan.perPage = DefaultPerPage
	case plan.perPage > MaxPerPage:
		plan.perPage = MaxPerPage
	}
	if plan.page < 1 {
		plan.page = 1
	}
	return plan
}

// filter narrows and orders the select. homepageColumn and activeColumn
// name the per-type flag columns.
func (p listPlan) filter(homepageColumn, activeColumn string) func(q *bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if p.query != "" {
			pattern := "%" + strings.ToLower(p.query) + "%"
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("LOWER(?TableAlias.title) LIKE ?", pattern).
					WhereOr("LOWER(?TableAlias.subtitle) LIKE ?", pattern)
			})
		}
		if p.homepage != nil {
			q = q.Where("?TableAlias.? = ?", bun.Ident(homepageColumn), *p.homepage)
		}
		if p.activeOnly {
			q = q.Where("?TableAlias.? = ?", bun.Ident(activeColumn), true)
		}
		return q.OrderExpr("?TableAlias.position ASC").OrderExpr("?TableAlias.created_at ASC")
	}
}

// list runs the plan against a go-repository-bun repository.
func list[T any](ctx context.Context, repo repository.Repository[T], plan listPlan, homepageColumn, activeColumn string) ([]T, int, error) {
	process := repository.SelectRawProcessor(plan.filter(homepageColumn, activeColumn))
	if plan.all {
		return repo.List(ctx, process)
	}
	return repo.List(ctx, process, repository.SelectPaginate(plan.perPage, (plan.page-1)*plan.perPage))
}

func newListResult[T any](items []T, total int, plan listPlan) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	result := ListResult[T]{Items: items, Total: total, Page: plan.page, PerPage: plan.perPage}
	if plan.all {
		result.Page = 1
		result.PerPage = total
		if total > 0 {
			result.Pages = 1
		}
		return result
	}
	result.Pages = (total + plan.perPage - 1) / plan.perPage
	return result
}
