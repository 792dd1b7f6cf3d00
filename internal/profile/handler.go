// Package profile serves the account page: the user header, the authored-book
// shelf and the achievements derived from it.
package profile

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
	"github.com/malikovshahriyor929/sahifa-x/internal/session"
	"github.com/malikovshahriyor929/sahifa-x/pkg/locales"
)

type Handler struct {
	Backend *backend.Client
	Log     *log.Logger
}

func NewHandler(client *backend.Client, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Backend: client, Log: logger.WithPrefix("profile")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.profile)
}

// Achievement is one badge on the profile page.
type Achievement struct {
	Title    string `json:"title"`
	Unlocked bool   `json:"unlocked"`
}

// View is the profile page model.
type View struct {
	User         normalize.ProfileUser   `json:"user"`
	Books        []normalize.ProfileBook `json:"books"`
	Total        int                     `json:"total"`
	Achievements []Achievement           `json:"achievements"`
}

func (h *Handler) profile(c *gin.Context) {
	token := session.AccessToken(c)
	locale := localeOf(c)

	var profilePayload, booksPayload []byte
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		payload, err := h.Backend.Profile(ctx, token)
		profilePayload = payload
		return err
	})
	g.Go(func() error {
		// the shelf degrades to empty when my-books is down
		payload, err := h.Backend.MyBooks(ctx, token)
		if err != nil {
			h.Log.Debug("my-books unavailable", "err", err)
			return nil
		}
		booksPayload = payload
		return nil
	})
	if err := g.Wait(); err != nil {
		h.Log.Error("profile fetch failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Profil ma'lumotlarini olib bo'lmadi."})
		return
	}

	books, total := normalize.MyBooks(booksPayload, locale)

	c.JSON(http.StatusOK, View{
		User:         normalize.Profile(profilePayload, total),
		Books:        books,
		Total:        total,
		Achievements: achievements(total),
	})
}

// achievements derives the badge row from the published-work count.
func achievements(works int) []Achievement {
	return []Achievement{
		{Title: "Birinchi asar", Unlocked: works >= 1},
		{Title: "Besh asar", Unlocked: works >= 5},
		{Title: "O'n asar", Unlocked: works >= 10},
	}
}

func localeOf(c *gin.Context) string {
	if v, ok := c.Get(locales.CtxLocaleKey); ok {
		if locale, ok := v.(string); ok && locale != "" {
			return locale
		}
	}
	return locales.Default
}
