package model

import (
	"strings"
	"time"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	ImgURL      string     `json:"img_url"`
	Date        time.Time  `json:"date"`
	Categories  []Category `json:"categories"`
}

type ProductFilter struct {
	CategoryID int64
	Name       string
}

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)

// PageRequest selects one page of a listing. Page is zero-based.
type PageRequest struct {
	Page      int
	Size      int
	OrderBy   string
	Direction string
}

func (p PageRequest) Normalize(defaultOrder string) PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if strings.TrimSpace(p.OrderBy) == "" {
		p.OrderBy = defaultOrder
	}
	if strings.EqualFold(p.Direction, "desc") {
		p.Direction = "DESC"
	} else {
		p.Direction = "ASC"
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Content []T
	Total   int
	Request PageRequest
}

func (p Page[T]) Meta() *Meta {
	totalPages := 0
	if p.Request.Size > 0 {
		totalPages = (p.Total + p.Request.Size - 1) / p.Request.Size
	}
	return &Meta{
		Page:       p.Request.Page,
		Limit:      p.Request.Size,
		Total:      p.Total,
		TotalPages: totalPages,
	}
}
