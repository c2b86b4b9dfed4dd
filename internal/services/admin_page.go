package services

import (
	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Page is the admin listing envelope.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](rows []T, total int64, q repos.ListQuery) *Page[T] {
	q = q.Normalize()
	if rows == nil {
		rows = []T{}
	}
	return &Page[T]{
		Data: rows,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: paging.TotalPages(total, q.Limit),
		},
	}
}
