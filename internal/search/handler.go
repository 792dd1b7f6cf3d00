package search

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
)

const (
	pageSize = 20

	// maxSessions bounds the loader map; past it, idle sessions are dropped
	// wholesale and clients simply start a fresh accumulation.
	maxSessions = 1000
)

type Handler struct {
	Backend *backend.Client
	Log     *log.Logger

	mu      sync.Mutex
	loaders map[string]*Loader
}

func NewHandler(client *backend.Client, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		Backend: client,
		Log:     logger.WithPrefix("search"),
		loaders: map[string]*Loader{},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
}

// Result is one search response. Stale marks a response that lost the race
// to a newer fetch; its Books are the newer accumulated list.
type Result struct {
	SID   string           `json:"sid"`
	Query string           `json:"query"`
	Page  int              `json:"page"`
	Stale bool             `json:"stale"`
	Books []normalize.Book `json:"books"`
}

func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("search"))
	page := intQuery(c, "page", 1)

	sid := c.Query("sid")
	if sid == "" {
		sid = uuid.NewString()
	}
	loader := h.loader(sid)
	id := loader.Begin()

	payload, err := h.Backend.GetBooks(c.Request.Context(), backend.SearchQuery{
		Search:  query,
		Page:    page,
		PerPage: pageSize,
	})
	if err != nil {
		h.Log.Error("search fetch failed", "query", query, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Qidiruvni bajarib bo'lmadi. Keyinroq qayta urinib ko'ring."})
		return
	}

	books, applied := loader.Apply(id, normalize.Books(payload), page <= 1)

	c.JSON(http.StatusOK, Result{
		SID:   sid,
		Query: query,
		Page:  page,
		Stale: !applied,
		Books: books,
	})
}

func (h *Handler) loader(sid string) *Loader {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.loaders) >= maxSessions {
		h.loaders = map[string]*Loader{}
	}
	l, ok := h.loaders[sid]
	if !ok {
		l = &Loader{}
		h.loaders[sid] = l
	}
	return l
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
