// Package paginator splits a counted listing into fixed-size pages.
package paginator

import (
	"errors"
	"strconv"
)

// Window is the slice of a listing that one page covers.
type Window struct {
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

// Offset is the index of the first item on the page.
func (w Window) Offset() int {
	return (w.Number - 1) * w.PerPage
}

// Limit is the page size.
func (w Window) Limit() int {
	return w.PerPage
}

// Resolve picks the page for a raw ?page= value. Values that are not integers
// select the first page; numbers outside the range, including ones too large
// for an int, select the last page.
// An empty listing still has a single, empty page.
func Resolve(raw string, count int64, perPage int) Window {
	if perPage < 1 {
		perPage = 1
	}
	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange):
		number = numPages
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}
	return Window{Number: number, NumPages: numPages, Count: count, PerPage: perPage}
}

// Page is one page of items plus the window that produced it.
type Page[T any] struct {
	Window
	Items []T
}

// NewPage attaches items to a window.
func NewPage[T any](w Window, items []T) *Page[T] {
	return &Page[T]{Window: w, Items: items}
}

func (p *Page[T]) Len() int { return len(p.Items) }

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

func (p *Page[T]) NextPageNumber() int { return p.Number + 1 }

func (p *Page[T]) PreviousPageNumber() int { return p.Number - 1 }

// PageRange lists 1..NumPages for rendering page links.
func (p *Page[T]) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
