package paging

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery is the admin listing contract: 1-based page, page size, a case-insensitive
// substring search, and exact-match filters keyed by column.
type ListQuery struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset is the zero-based index of the first row on the page.
func (q ListQuery) Offset() int {
	q = q.Normalize()
	return (q.Page - 1) * q.Limit
}

func (q ListQuery) Filter(name string) string {
	if q.Filters == nil {
		return ""
	}
	return strings.TrimSpace(q.Filters[name])
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Contains returns a portable case-insensitive LIKE clause and its argument.
func Contains(column, needle string) (string, string) {
	return "LOWER(" + column + ") LIKE ?", "%" + strings.ToLower(needle) + "%"
}

// CountAndFind runs the count and the page query for base. Outside a transaction the two
// queries run concurrently; a transaction holds a single connection so they run in order.
func CountAndFind(ctx context.Context, base *gorm.DB, inTx bool, q ListQuery, order string, out interface{}, preloads ...string) (int64, error) {
	q = q.Normalize()
	var total int64
	count := func() error {
		return base.Session(&gorm.Session{}).WithContext(ctx).Count(&total).Error
	}
	find := func() error {
		page := base.Session(&gorm.Session{}).WithContext(ctx)
		for _, p := range preloads {
			page = page.Preload(p)
		}
		return page.Order(order).Offset(q.Offset()).Limit(q.Limit).Find(out).Error
	}
	if inTx {
		if err := count(); err != nil {
			return 0, err
		}
		if err := find(); err != nil {
			return 0, err
		}
		return total, nil
	}
	g, _ := errgroup.WithContext(ctx)
	g.Go(count)
	g.Go(find)
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}
