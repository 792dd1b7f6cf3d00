package normalize

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type ProfileStats struct {
	Works     int    `json:"works"`
	Followers string `json:"followers"`
	Likes     string `json:"likes"`
}

type ProfileUser struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Handle    string       `json:"handle"`
	AvatarURL string       `json:"avatarUrl"`
	Bio       string       `json:"bio"`
	Role      string       `json:"role"`
	IsPremium bool         `json:"isPremium"`
	Stats     ProfileStats `json:"stats"`
}

type ProfileBook struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	CoverURL   string `json:"coverUrl"`
	Status     string `json:"status"`
	Views      string `json:"views"`
	Comments   int    `json:"comments"`
	LastEdited string `json:"lastEdited"`
	UpdatedAt  string `json:"updatedAt"`
	Href       string `json:"href"`
}

// Profile shapes the account payload for the profile header. works is the
// caller's already-known published-work count.
func Profile(payload []byte, works int) ProfileUser {
	doc := gjson.ParseBytes(payload)
	data := object(doc, "data")
	if !data.IsObject() {
		data = gjson.Result{}
	}

	id := firstID(data, "id", "_id")
	if id == "" {
		id = "unknown"
	}
	email := text(data.Get("email"))
	name := text(data.Get("name"))
	if name == "" {
		if email != "" {
			name = email
		} else {
			name = "Foydalanuvchi"
		}
	}
	role := text(data.Get("role"))
	if role == "" {
		role = "USER"
	}

	handle := name
	if email != "" {
		handle, _, _ = strings.Cut(email, "@")
	} else {
		handle = strings.ReplaceAll(strings.ToLower(name), " ", "")
	}

	return ProfileUser{
		ID:        id,
		Email:     email,
		Name:      name,
		Handle:    handle,
		AvatarURL: AvatarURL(name),
		Bio: fmt.Sprintf(
			"%s sifatida ro'yxatdan o'tgan. Profil yaratilgan sana: %s.",
			role, FormatDate(text(data.Get("createdAt"))),
		),
		Role:      role,
		IsPremium: false,
		Stats: ProfileStats{
			Works:     works,
			Followers: "0",
			Likes:     "0",
		},
	}
}

// MyBooks shapes the authored-books payload for the profile shelf. The list
// may sit under "data" or "data.data"; the total comes from "_meta" when the
// backend sends one.
func MyBooks(payload []byte, locale string) ([]ProfileBook, int) {
	doc, ok := record(payload)
	if !ok {
		return nil, 0
	}

	raw := doc.Get("data")
	if !raw.IsArray() {
		raw = doc.Get("data.data")
	}
	if !raw.IsArray() {
		return nil, 0
	}

	meta := doc.Get("_meta")
	if !meta.IsObject() {
		meta = doc.Get("data._meta")
	}

	var books []ProfileBook
	for _, item := range raw.Array() {
		if !item.IsObject() {
			continue
		}
		index := len(books)

		id := firstID(item, "id", "_id")
		if id == "" {
			id = fmt.Sprintf("book-%d", index+1)
		}
		status := "DRAFT"
		if strings.EqualFold(text(item.Get("status")), "PUBLISHED") {
			status = "PUBLISHED"
		}
		title := text(item.Get("title"))
		if title == "" {
			title = fmt.Sprintf("%s %d", untitledBook, index+1)
		}
		genre := text(item.Get("category"))
		if genre == "" {
			genre = otherCategory
		}
		cover := text(item.Get("coverUrl"))
		if cover == "" {
			cover = DefaultBookCover
		}
		edited := firstText(item, "updatedAt", "createdAt")

		books = append(books, ProfileBook{
			ID:         id,
			Title:      title,
			Genre:      genre,
			CoverURL:   cover,
			Status:     status,
			Views:      "0",
			Comments:   0,
			LastEdited: "Oxirgi tahrir: " + FormatDate(edited),
			UpdatedAt:  edited,
			Href:       fmt.Sprintf("/%s/books/%s", locale, url.PathEscape(id)),
		})
	}

	total := len(books)
	if f, ok := number(meta.Get("total")); ok {
		total = int(f)
	}
	return books, total
}

// AvatarURL builds the generated-initials avatar used wherever the backend
// has no picture for a user.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) +
		"&background=0f8d8f&color=fff&bold=true"
}

// FormatDate renders a backend timestamp as a dd.mm.yyyy label.
func FormatDate(raw string) string {
	t, ok := parseTime(raw)
	if !ok {
		return "Noma'lum sana"
	}
	return t.Format("02.01.2006")
}

// FormatRelative renders a backend timestamp as a coarse "time ago" label.
func FormatRelative(raw string, now time.Time) string {
	t, ok := parseTime(raw)
	if !ok {
		return "Hozirgina"
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Hozirgina"
	case diff < time.Hour:
		return fmt.Sprintf("%d daqiqa oldin", max(1, int(diff/time.Minute)))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d soat oldin", max(1, int(diff/time.Hour)))
	default:
		return fmt.Sprintf("%d kun oldin", max(1, int(diff/(24*time.Hour))))
	}
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
