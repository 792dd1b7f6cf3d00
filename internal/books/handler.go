// Package books serves the catalog pages: the searchable list, a book's
// detail page with its chapter index, the chapter reader, and the author
// page, plus the authenticated write flows (create/edit books and chapters,
// purchases, file upload).
package books

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
	"github.com/malikovshahriyor929/sahifa-x/internal/session"
	"github.com/malikovshahriyor929/sahifa-x/pkg/locales"
)

const (
	defaultPageSize = 20

	msgBooksUnavailable   = "Kitoblar ro'yxatini olib bo'lmadi. Keyinroq qayta urinib ko'ring."
	msgBookUnavailable    = "Kitob ma'lumotlarini olib bo'lmadi."
	msgChapterUnavailable = "Bobni olib bo'lmadi. Keyinroq qayta urinib ko'ring."
	msgChapterMalformed   = "Bob ma'lumotlari noto'g'ri formatda keldi."
	msgWriteFailed        = "Saqlab bo'lmadi. Keyinroq qayta urinib ko'ring."
	msgUploadFailed       = "Faylni yuklab bo'lmadi."
	msgPurchaseFailed     = "Xaridni amalga oshirib bo'lmadi."
)

type Handler struct {
	Backend *backend.Client
	Log     *log.Logger
}

func NewHandler(client *backend.Client, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Backend: client, Log: logger.WithPrefix("books")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books", h.list)
	rg.GET("/books/:id", h.detail)
	rg.GET("/books/:id/chapters/:order", h.reader)
	rg.GET("/authors/:id", h.author)

	rg.GET("/lookup", h.lookup)
	rg.POST("/books", h.createBook)
	rg.PUT("/books/:id", h.editBook)
	rg.POST("/books/:id/chapters", h.createChapter)
	rg.PUT("/books/:id/chapters/:chapterId", h.editChapter)
	rg.POST("/books/:id/buy", h.buy)
	rg.POST("/books/:id/rent", h.rent)
	rg.POST("/upload", h.upload)
}

// ListView is the searchable catalog page model.
type ListView struct {
	Books []normalize.Book `json:"books"`
	Query string           `json:"query"`
	Page  int              `json:"page"`
}

func (h *Handler) list(c *gin.Context) {
	query := strings.TrimSpace(c.Query("search"))
	page := intQuery(c, "page", 1)

	payload, err := h.Backend.GetBooks(c.Request.Context(), backend.SearchQuery{
		Search:  query,
		Page:    page,
		PerPage: defaultPageSize,
	})
	if err != nil {
		h.Log.Error("book list fetch failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgBooksUnavailable})
		return
	}

	c.JSON(http.StatusOK, ListView{
		Books: normalize.Books(payload),
		Query: query,
		Page:  page,
	})
}

// ChapterCard is one chapter index entry on the detail page.
type ChapterCard struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	Title     string `json:"title"`
	IsPreview bool   `json:"isPreview"`
	Href      string `json:"href"`
}

// DetailView is the book detail page model.
type DetailView struct {
	Book     normalize.BookMeta `json:"book"`
	Chapters []ChapterCard      `json:"chapters"`
}

func (h *Handler) detail(c *gin.Context) {
	id := c.Param("id")
	token := session.AccessToken(c)
	locale := localeOf(c)

	var bookPayload, chaptersPayload []byte
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		payload, err := h.Backend.GetBook(ctx, token, id)
		bookPayload = payload
		return err
	})
	g.Go(func() error {
		payload, err := h.Backend.Chapters(ctx, token, id, 1, 100)
		chaptersPayload = payload
		return err
	})
	if err := g.Wait(); err != nil {
		h.Log.Error("book detail fetch failed", "id", id, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgBookUnavailable})
		return
	}

	meta := normalize.Meta(bookPayload)
	if meta == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": msgBookUnavailable})
		return
	}

	chapters := normalize.ChapterList(chaptersPayload)
	cards := make([]ChapterCard, 0, len(chapters))
	for _, ch := range chapters {
		cards = append(cards, ChapterCard{
			ID:        ch.ID,
			Order:     ch.Order,
			Title:     normalize.ChapterCardTitle(ch.Order, ch.Title),
			IsPreview: ch.IsPreview != nil && *ch.IsPreview,
			Href:      readerHref(locale, id, ch.Order),
		})
	}

	c.JSON(http.StatusOK, DetailView{Book: *meta, Chapters: cards})
}

// ReaderView is the chapter reading page model.
type ReaderView struct {
	BookID     string                      `json:"bookId"`
	Title      string                      `json:"title"`
	Order      int                         `json:"order"`
	Paragraphs []string                    `json:"paragraphs"`
	ContentURL string                      `json:"contentUrl,omitempty"`
	Nav        normalize.ChapterNavigation `json:"nav"`
	PrevHref   string                      `json:"prevHref,omitempty"`
	NextHref   string                      `json:"nextHref,omitempty"`
}

func (h *Handler) reader(c *gin.Context) {
	bookID := c.Param("id")
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bob raqami noto'g'ri."})
		return
	}
	token := session.AccessToken(c)
	locale := localeOf(c)

	payload, err := h.Backend.ChapterByOrder(c.Request.Context(), token, bookID, order)
	if err != nil && order > 1 {
		// a missing chapter lands the reader on the first one instead of
		// an error page
		h.Log.Debug("chapter missing, falling back to first", "book", bookID, "order", order, "err", err)
		order = 1
		payload, err = h.Backend.ChapterByOrder(c.Request.Context(), token, bookID, order)
	}
	if err != nil {
		h.Log.Error("chapter fetch failed", "book", bookID, "order", order, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgChapterUnavailable})
		return
	}

	detail := normalize.Detail(payload, order, bookID)
	if detail == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": msgChapterMalformed})
		return
	}

	view := ReaderView{
		BookID:     detail.BookID,
		Title:      normalize.ChapterCardTitle(detail.Order, detail.Title),
		Order:      detail.Order,
		Paragraphs: normalize.Paragraphs(detail.Content),
		ContentURL: detail.ContentURL,
		Nav:        normalize.Navigation(payload),
	}
	if view.Nav.Prev != nil {
		view.PrevHref = readerHref(locale, bookID, *view.Nav.Prev)
	}
	if view.Nav.Next != nil {
		view.NextHref = readerHref(locale, bookID, *view.Nav.Next)
	}
	c.JSON(http.StatusOK, view)
}

// AuthorView is the public author page model.
type AuthorView struct {
	Name      string           `json:"name"`
	AvatarURL string           `json:"avatarUrl"`
	Books     []normalize.Book `json:"books"`
}

func (h *Handler) author(c *gin.Context) {
	payload, err := h.Backend.GetBookAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": msgBookUnavailable})
		return
	}

	books := normalize.Books(payload)
	name := normalize.UnknownAuthorName
	for _, book := range books {
		if book.Author != normalize.UnknownAuthorName {
			name = book.Author
			break
		}
	}

	c.JSON(http.StatusOK, AuthorView{
		Name:      name,
		AvatarURL: normalize.AvatarURL(name),
		Books:     books,
	})
}

// lookup returns the category options the create/edit forms offer.
func (h *Handler) lookup(c *gin.Context) {
	payload, err := h.Backend.Lookup(c.Request.Context(), session.AccessToken(c), map[string]bool{"category": true})
	if err != nil {
		h.Log.Debug("lookup unavailable", "err", err)
		c.JSON(http.StatusOK, gin.H{"categories": []normalize.LookupOption{}})
		return
	}
	options := normalize.LookupOptions(payload)
	if options == nil {
		options = []normalize.LookupOption{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": options})
}

type bookReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CoverURL    string `json:"coverUrl"`
	Price       *int   `json:"price,omitempty"`
}

func (b bookReq) payload() map[string]any {
	out := map[string]any{
		"title":       b.Title,
		"description": b.Description,
		"category":    b.Category,
		"coverUrl":    b.CoverURL,
	}
	if b.Price != nil {
		out["price"] = *b.Price
	}
	return out
}

func (h *Handler) createBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kitob nomi kiritilishi shart."})
		return
	}
	token := session.AccessToken(c)
	locale := localeOf(c)

	created, err := h.Backend.CreateBook(c.Request.Context(), token, req.payload())
	if err != nil {
		h.Log.Error("create book failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgWriteFailed})
		return
	}

	// the created id steers the client to the new detail page; a backend
	// that answers without one sends the author to their shelf instead
	next := "/" + locale + "/profile"
	id := normalize.CreatedBookID(created)
	if id != "" {
		next = fmt.Sprintf("/%s/books/%s", locale, url.PathEscape(id))
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "callbackUrl": next})
}

func (h *Handler) editBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	body := req.payload()
	body["id"] = c.Param("id")

	if _, err := h.Backend.EditBook(c.Request.Context(), session.AccessToken(c), body); err != nil {
		h.Log.Error("edit book failed", "id", c.Param("id"), "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgWriteFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type chapterReq struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsPreview bool   `json:"isPreview"`
}

func (r chapterReq) payload() map[string]any {
	return map[string]any{
		"title":     r.Title,
		"content":   r.Content,
		"isPreview": r.IsPreview,
	}
}

func (h *Handler) createChapter(c *gin.Context) {
	var req chapterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bob sarlavhasi kiritilishi shart."})
		return
	}
	bookID := c.Param("id")
	token := session.AccessToken(c)
	locale := localeOf(c)

	created, err := h.Backend.CreateChapter(c.Request.Context(), token, bookID, req.payload())
	if err != nil {
		h.Log.Error("create chapter failed", "book", bookID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgWriteFailed})
		return
	}

	next := fmt.Sprintf("/%s/books/%s", locale, url.PathEscape(bookID))
	order, ok := h.Backend.ResolveCreatedChapterOrder(c.Request.Context(), token, bookID, created)
	if ok {
		next = readerHref(locale, bookID, order)
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "callbackUrl": next})
}

func (h *Handler) editChapter(c *gin.Context) {
	var req chapterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	bookID := c.Param("id")
	chapterID := c.Param("chapterId")
	_, err := h.Backend.PutChapter(c.Request.Context(), session.AccessToken(c), bookID, chapterID, req.payload())
	if err != nil {
		h.Log.Error("edit chapter failed", "book", bookID, "chapter", chapterID, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgWriteFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) buy(c *gin.Context) {
	h.purchase(c, h.Backend.BuyBook)
}

func (h *Handler) rent(c *gin.Context) {
	h.purchase(c, h.Backend.RentBook)
}

type purchaseOp func(ctx context.Context, token string, order map[string]any) ([]byte, error)

func (h *Handler) purchase(c *gin.Context, op purchaseOp) {
	order := map[string]any{}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&order); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	order["bookId"] = c.Param("id")

	if _, err := op(c.Request.Context(), session.AccessToken(c), order); err != nil {
		h.Log.Error("purchase failed", "book", c.Param("id"), "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgPurchaseFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func readerHref(locale, bookID string, order int) string {
	return fmt.Sprintf("/%s/books/%s/chapters/%d", locale, url.PathEscape(bookID), order)
}

func localeOf(c *gin.Context) string {
	if v, ok := c.Get(locales.CtxLocaleKey); ok {
		if locale, ok := v.(string); ok && locale != "" {
			return locale
		}
	}
	return locales.Default
}

func (h *Handler) upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fayl topilmadi."})
		return
	}
	defer file.Close()

	// randomized name so concurrent uploads from one author never collide
	name := uuid.NewString() + filepath.Ext(header.Filename)

	payload, err := h.Backend.Upload(c.Request.Context(), session.AccessToken(c), name, file)
	if err != nil {
		h.Log.Error("upload failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgUploadFailed})
		return
	}

	uploadedURL := normalize.UploadedURL(payload)
	if uploadedURL == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": msgUploadFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": uploadedURL})
}
