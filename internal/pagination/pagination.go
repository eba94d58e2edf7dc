package pagination

import (
	"math"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultSize = 10
	MaxSize     = 100

	// MaxNumber keeps (Number-1)*Size from overflowing int.
	MaxNumber = math.MaxInt / MaxSize
)

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into range, applying defaults for unset values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxNumber {
		p.Number = MaxNumber
	}
	if p.Size < 1 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Offset is the number of items before the page. Call it on a normalized page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// FromQuery reads ?page= and ?per_page=, falling back to the first page of
// DefaultSize items when they are missing or malformed.
func FromQuery(c *fiber.Ctx) Page {
	return Page{Number: c.QueryInt("page", 1), Size: c.QueryInt("per_page", DefaultSize)}.Normalize()
}

// Result is one page of items plus whether another page follows.
type Result[T any] struct {
	Items   []T
	Page    Page
	HasMore bool
}

// Trim builds a Result from a lookup that asked for page.Size+1 items; the
// extra item only signals that another page exists.
func Trim[T any](items []T, page Page) Result[T] {
	r := Result[T]{Page: page, Items: items}
	if len(items) > page.Size {
		r.HasMore = true
		r.Items = items[:page.Size]
	}
	if r.Items == nil {
		r.Items = []T{}
	}
	return r
}

// Response is the JSON shape of a page.
type Response[T any] struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	HasMore     bool `json:"has_more"`
	Data        []T  `json:"data"`
}

// ToResponse converts a Result item by item.
func ToResponse[S, T any](r Result[S], convert func(S) T) Response[T] {
	data := make([]T, 0, len(r.Items))
	for _, item := range r.Items {
		data = append(data, convert(item))
	}
	return Response[T]{CurrentPage: r.Page.Number, PerPage: r.Page.Size, HasMore: r.HasMore, Data: data}
}
