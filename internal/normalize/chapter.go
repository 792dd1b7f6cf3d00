package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Chapter struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	IsPreview *bool  `json:"isPreview,omitempty"`
}

type ChapterDetail struct {
	Chapter
	BookID     string `json:"bookId"`
	Content    string `json:"content"`
	ContentURL string `json:"contentUrl,omitempty"`
}

type ChapterNavigation struct {
	Prev  *int `json:"prev"`
	Total int  `json:"total"`
	Next  *int `json:"next"`
}

// ChapterList extracts the chapter collection from a list payload. The list
// lives under "data"; entries without an explicit order get a 1-based
// fallback in original array position, and the result is sorted by order.
func ChapterList(payload []byte) []Chapter {
	doc, ok := record(payload)
	if !ok {
		return nil
	}
	data := doc.Get("data")
	if !data.IsArray() {
		return nil
	}

	var chapters []Chapter
	for _, item := range data.Array() {
		if !item.IsObject() {
			continue
		}

		order := len(chapters) + 1
		if f, ok := number(item.Get("order")); ok {
			order = int(f)
		}

		ch := Chapter{
			ID:        firstID(item, "id", "_id"),
			Title:     text(item.Get("title")),
			Order:     order,
			IsPreview: boolPtr(item, "isPreview", "is_preview"),
		}
		if ch.ID == "" {
			ch.ID = fmt.Sprintf("chapter-%d", order)
		}
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", order)
		}
		chapters = append(chapters, ch)
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Order < chapters[j].Order
	})
	return chapters
}

// Detail extracts a single chapter. Returns nil when the required id or
// title is unrecoverably missing; never a partially-filled record.
func Detail(payload []byte, fallbackOrder int, fallbackBookID string) *ChapterDetail {
	doc, ok := record(payload)
	if !ok {
		return nil
	}

	source := object(doc, "chapter")

	id := firstID(source, "id", "_id")
	title := text(source.Get("title"))
	if id == "" || title == "" {
		return nil
	}

	order := fallbackOrder
	if f, ok := number(source.Get("order")); ok {
		order = int(f)
	}
	bookID := text(source.Get("bookId"))
	if bookID == "" {
		bookID = fallbackBookID
	}

	return &ChapterDetail{
		Chapter: Chapter{
			ID:        id,
			Title:     title,
			Order:     order,
			IsPreview: boolPtr(source, "isPreview", "is_preview"),
		},
		BookID:     bookID,
		Content:    text(source.Get("content")),
		ContentURL: text(source.Get("contentUrl")),
	}
}

// Navigation reads the prev/total/next block a chapter payload may carry.
func Navigation(payload []byte) ChapterNavigation {
	doc, ok := record(payload)
	if !ok {
		return ChapterNavigation{}
	}
	nav := doc.Get("nav")
	if !nav.IsObject() {
		return ChapterNavigation{}
	}

	out := ChapterNavigation{}
	if f, ok := number(nav.Get("prev")); ok {
		prev := int(f)
		out.Prev = &prev
	}
	if f, ok := number(nav.Get("next")); ok {
		next := int(f)
		out.Next = &next
	}
	if f, ok := number(nav.Get("total")); ok {
		out.Total = int(f)
	}
	return out
}

// CreatedChapterOrder resolves the order of a freshly created chapter;
// false when the payload does not carry one anywhere.
func CreatedChapterOrder(payload []byte) (int, bool) {
	doc, ok := record(payload)
	if !ok {
		return 0, false
	}
	if f, ok := number(doc.Get("order")); ok {
		return int(f), true
	}
	source := doc.Get("chapter")
	if !source.IsObject() {
		source = doc.Get("data")
	}
	if !source.IsObject() {
		return 0, false
	}
	if f, ok := number(source.Get("order")); ok {
		return int(f), true
	}
	return 0, false
}

var englishChapterPrefix = regexp.MustCompile(`(?i)^chapter\s*\d+\s*:\s*`)

// StripChapterPrefix removes a leading "Chapter N:" or "{N}-bob:" prefix so
// display titles can be re-prefixed with the localized chapter label.
func StripChapterPrefix(title string, order int) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ""
	}

	cleaned := englishChapterPrefix.ReplaceAllString(trimmed, "")
	uzbekPrefix := regexp.MustCompile(fmt.Sprintf(`(?i)^%d\s*[-.]?\s*bob\s*:?\s*`, order))
	cleaned = uzbekPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ChapterCardTitle renders the localized list entry label for a chapter.
func ChapterCardTitle(order int, rawTitle string) string {
	clean := StripChapterPrefix(rawTitle, order)
	if clean == "" {
		return fmt.Sprintf("%d-bob", order)
	}
	return fmt.Sprintf("%d-bob: %s", order, clean)
}

// Paragraphs splits chapter content into display paragraphs, with the
// product placeholder when the chapter has no text yet.
func Paragraphs(content string) []string {
	var out []string
	for _, part := range strings.Split(content, "\n") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"Ushbu bob uchun matn mavjud emas. Keyinroq qayta urinib ko'ring."}
	}
	return out
}
