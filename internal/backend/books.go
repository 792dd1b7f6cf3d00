package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
)

// SearchQuery is the paging/filter shape of the book list endpoint.
type SearchQuery struct {
	Search  string
	Page    int
	PerPage int
}

func (q SearchQuery) encode() string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// GetBooks fetches the public book list.
func (c *Client) GetBooks(ctx context.Context, q SearchQuery) ([]byte, error) {
	payload, status, err := c.get(ctx, c.booksPath("/get-books")+q.encode(), "")
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("get-books returned status %d", status)
	}
	return payload, nil
}

// GetBook fetches one book's detail payload.
func (c *Client) GetBook(ctx context.Context, token, id string) ([]byte, error) {
	payload, status, err := c.get(ctx, c.booksPath("/get-book/"+url.PathEscape(id)), token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("get-book returned status %d", status)
	}
	return payload, nil
}

// GetBookAuthor fetches the author page payload for a book.
func (c *Client) GetBookAuthor(ctx context.Context, id string) ([]byte, error) {
	payload, status, err := c.get(ctx, c.booksPath("/get-book-author/"+url.PathEscape(id)), "")
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("get-book-author returned status %d", status)
	}
	return payload, nil
}

// Chapters fetches a book's chapter list.
func (c *Client) Chapters(ctx context.Context, token, bookID string, page, perPage int) ([]byte, error) {
	endpoint := c.booksPath("/chapters/" + url.PathEscape(bookID))
	endpoint += SearchQuery{Page: page, PerPage: perPage}.encode()
	payload, status, err := c.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("chapters returned status %d", status)
	}
	return payload, nil
}

// ChapterByOrder fetches one chapter of a book by its reading order.
func (c *Client) ChapterByOrder(ctx context.Context, token, bookID string, order int) ([]byte, error) {
	endpoint := c.booksPath("/chapters/" + url.PathEscape(bookID) + "/" + strconv.Itoa(order))
	payload, status, err := c.get(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("chapter returned status %d", status)
	}
	return payload, nil
}

// MyBooks fetches the caller's authored books.
func (c *Client) MyBooks(ctx context.Context, token string) ([]byte, error) {
	payload, status, err := c.get(ctx, c.booksPath("/my-books"), token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("my-books returned status %d", status)
	}
	return payload, nil
}

// CreateBook creates a book and returns the raw payload for id resolution.
func (c *Client) CreateBook(ctx context.Context, token string, book map[string]any) ([]byte, error) {
	payload, status, err := c.do(ctx, http.MethodPost, c.booksPath("/create-book"), book, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("create-book returned status %d", status)
	}
	return payload, nil
}

// CreateChapter creates a chapter under a book.
func (c *Client) CreateChapter(ctx context.Context, token, bookID string, chapter map[string]any) ([]byte, error) {
	endpoint := c.booksPath("/create-chapter/" + url.PathEscape(bookID))
	payload, status, err := c.do(ctx, http.MethodPost, endpoint, chapter, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("create-chapter returned status %d", status)
	}
	return payload, nil
}

// PutChapter updates an existing chapter.
func (c *Client) PutChapter(ctx context.Context, token, bookID, chapterID string, chapter map[string]any) ([]byte, error) {
	endpoint := c.booksPath("/put-chapter/" + url.PathEscape(bookID) + "/" + url.PathEscape(chapterID))
	payload, status, err := c.do(ctx, http.MethodPut, endpoint, chapter, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("put-chapter returned status %d", status)
	}
	return payload, nil
}

// EditBook updates book metadata.
func (c *Client) EditBook(ctx context.Context, token string, book map[string]any) ([]byte, error) {
	payload, status, err := c.do(ctx, http.MethodPut, c.booksPath("/edit-book"), book, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("edit-book returned status %d", status)
	}
	return payload, nil
}

// BuyBook purchases a book for the caller.
func (c *Client) BuyBook(ctx context.Context, token string, order map[string]any) ([]byte, error) {
	payload, status, err := c.do(ctx, http.MethodPost, c.booksPath("/buy-book"), order, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("buy-book returned status %d", status)
	}
	return payload, nil
}

// RentBook rents a book for the caller.
func (c *Client) RentBook(ctx context.Context, token string, order map[string]any) ([]byte, error) {
	payload, status, err := c.do(ctx, http.MethodPost, c.booksPath("/rent-book"), order, token)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, fmt.Errorf("rent-book returned status %d", status)
	}
	return payload, nil
}

// ResolveCreatedChapterOrder extracts the new chapter's order from a create
// response, re-fetching the chapter list as a best-effort fallback when the
// response does not carry one.
func (c *Client) ResolveCreatedChapterOrder(ctx context.Context, token, bookID string, created []byte) (int, bool) {
	if order, ok := normalize.CreatedChapterOrder(created); ok {
		return order, true
	}

	payload, err := c.Chapters(ctx, token, bookID, 1, 100)
	if err != nil {
		return 0, false
	}
	chapters := normalize.ChapterList(payload)
	if len(chapters) == 0 {
		return 0, false
	}
	return chapters[len(chapters)-1].Order, true
}
