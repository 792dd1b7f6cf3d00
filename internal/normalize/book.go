package normalize

import (
	"fmt"

	"github.com/tidwall/gjson"
)

type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	CoverURL    string   `json:"coverUrl"`
	Rating      *float64 `json:"rating,omitempty"`
	Category    string   `json:"category"`
	ReadCount   string   `json:"readCount,omitempty"`
	IsNew       bool     `json:"isNew"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Description string   `json:"description,omitempty"`
}

// BookMeta is the minimal book header shown on reader and detail pages.
type BookMeta struct {
	Title    string `json:"title"`
	CoverURL string `json:"coverUrl"`
	// AuthorID is empty when the payload carries no recognizable owner.
	AuthorID string `json:"authorId,omitempty"`
}

// Books extracts a book collection from a list payload. Entries that are not
// objects are dropped; every surviving entry is fully defaulted.
func Books(payload []byte) []Book {
	doc := gjson.ParseBytes(payload)
	var books []Book
	for _, item := range items(doc) {
		if !item.IsObject() {
			continue
		}
		books = append(books, oneBook(item, len(books)))
	}
	return books
}

func oneBook(item gjson.Result, index int) Book {
	book := Book{
		ID:       firstID(item, "id", "_id"),
		Title:    firstText(item, "title", "name"),
		Author:   firstText(item, "author", "authorName"),
		CoverURL: firstText(item, "coverUrl", "cover", "image"),
		Category: firstText(item, "category", "genre"),
		IsNew:    item.Get("isNew").Type == gjson.True,
	}

	if book.ID == "" {
		book.ID = fmt.Sprintf("book-%d", index+1)
	}
	if book.Title == "" {
		book.Title = fmt.Sprintf("%s %d", untitledBook, index+1)
	}
	if book.Author == "" {
		book.Author = UnknownAuthorName
	}
	if book.CoverURL == "" {
		book.CoverURL = DefaultBookCover
	}
	if book.Category == "" {
		book.Category = otherCategory
	}
	if rating, ok := number(item.Get("rating")); ok {
		book.Rating = &rating
	}
	book.ReadCount = readCount(item)
	book.Timestamp = text(item.Get("timestamp"))
	book.Description = text(item.Get("description"))
	return book
}

// readCount keeps the backend's string form when present and stringifies
// numeric counts; it is a display value, not an integer.
func readCount(item gjson.Result) string {
	for _, key := range []string{"readCount", "reads"} {
		v := item.Get(key)
		switch v.Type {
		case gjson.Number:
			return v.String()
		case gjson.String:
			if s := text(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Meta extracts the book header from a detail payload. Returns nil only when
// the payload is not a JSON object; an empty object yields full defaults.
func Meta(payload []byte) *BookMeta {
	doc, ok := record(payload)
	if !ok {
		return nil
	}

	source := object(doc, "data", "book", "item", "result")

	meta := &BookMeta{
		Title:    firstText(source, "title", "name"),
		CoverURL: firstText(source, "coverUrl", "cover", "image"),
		AuthorID: firstText(source, "authorId", "userId", "ownerId"),
	}
	if meta.Title == "" {
		meta.Title = "Kitob"
	}
	if meta.CoverURL == "" {
		meta.CoverURL = DefaultBookCover
	}
	return meta
}

// CreatedBookID resolves the id of a freshly created book from whichever
// shape the backend chose to answer with.
func CreatedBookID(payload []byte) string {
	doc, ok := record(payload)
	if !ok {
		return ""
	}
	if direct := text(doc.Get("id")); direct != "" {
		return direct
	}
	for _, key := range []string{"data", "book"} {
		if nested := doc.Get(key); nested.IsObject() {
			return firstID(nested, "id", "_id")
		}
	}
	return ""
}
