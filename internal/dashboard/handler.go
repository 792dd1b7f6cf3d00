// Package dashboard assembles the landing page view model: trending and new
// books, top authors and genres, all derived from one catalog fetch.
package dashboard

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
	"github.com/malikovshahriyor929/sahifa-x/internal/session"
)

// catalogPageSize is how much of the catalog one dashboard render considers.
const catalogPageSize = 100

type Handler struct {
	Backend *backend.Client
	Log     *log.Logger
}

func NewHandler(client *backend.Client, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Backend: client, Log: logger.WithPrefix("dashboard")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.dashboard)
}

// View is the dashboard page model.
type View struct {
	Greeting    string                   `json:"greeting"`
	Trending    []normalize.Book         `json:"trending"`
	NewArrivals []normalize.Book         `json:"newArrivals"`
	TopAuthors  []normalize.Author       `json:"topAuthors"`
	TopGenres   []string                 `json:"topGenres"`
	Categories  []normalize.LookupOption `json:"categories"`
}

func (h *Handler) dashboard(c *gin.Context) {
	token := session.AccessToken(c)

	var booksPayload, lookupPayload []byte
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		payload, err := h.Backend.GetBooks(ctx, backend.SearchQuery{PerPage: catalogPageSize})
		booksPayload = payload
		return err
	})
	g.Go(func() error {
		// reference data is decoration here: a failed lookup never blocks
		// the page
		payload, err := h.Backend.Lookup(ctx, token, map[string]bool{"category": true})
		if err != nil {
			h.Log.Debug("lookup unavailable", "err", err)
			return nil
		}
		lookupPayload = payload
		return nil
	})
	if err := g.Wait(); err != nil {
		h.Log.Error("catalog fetch failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Kitoblar ro'yxatini olib bo'lmadi. Keyinroq qayta urinib ko'ring."})
		return
	}

	books := normalize.Books(booksPayload)

	view := View{
		Greeting:    greeting(session.MustGetClaims(c)),
		Trending:    normalize.PickTrending(books),
		NewArrivals: normalize.PickNewArrivals(books),
		TopAuthors:  normalize.TopAuthors(books),
		TopGenres:   normalize.TopGenres(books),
		Categories:  normalize.LookupOptions(lookupPayload),
	}
	c.JSON(http.StatusOK, view)
}

func greeting(claims *session.Claims) string {
	if claims == nil || claims.Name == "" {
		return "Xush kelibsiz!"
	}
	return "Xush kelibsiz, " + claims.Name + "!"
}
