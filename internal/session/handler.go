package session

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/pkg/locales"
)

const invalidCredentialsMessage = "Login yoki parol noto'g'ri"

type Handler struct {
	Backend *backend.Client
	Tokens  TokenService
	Secure  bool
	Log     *log.Logger
}

func NewHandler(client *backend.Client, tokens TokenService, secure bool, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Backend: client, Tokens: tokens, Secure: secure, Log: logger.WithPrefix("auth")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	limited := rg.Group("", RateLimit(DefaultAuthRate, DefaultAuthBurst))
	limited.POST("/login", h.login)
	limited.POST("/register", h.register)
	limited.POST("/forgot-password", h.forgotPassword)
	limited.POST("/reset-password/:userId/:token", h.resetPassword)
	rg.POST("/logout", h.logout)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	result, err := h.Backend.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		h.Log.Debug("login rejected", "email", email, "err", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCredentialsMessage})
		return
	}

	claims := &Claims{
		UserID:       result.User.ID,
		Name:         result.User.Name,
		Email:        result.User.Email,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	signed, err := h.Tokens.Sign(claims)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	setSessionCookie(c, signed, int(h.Tokens.Duration.Seconds()), h.Secure)
	if result.RefreshToken != "" {
		setRefreshCookie(c, result.RefreshToken, h.Secure)
	}

	callback := strings.TrimSpace(c.Query("callbackUrl"))
	if callback == "" || !strings.HasPrefix(callback, "/") {
		callback = "/" + localeOf(c)
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    result.User.ID,
			"name":  result.User.Name,
			"email": result.User.Email,
		},
		"callbackUrl": callback,
	})
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || !strings.Contains(req.Email, "@") || len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and a password of 8+ chars required"})
		return
	}

	if _, err := h.Backend.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		h.Log.Debug("register rejected", "email", req.Email, "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Ro'yxatdan o'tib bo'lmadi. Keyinroq qayta urinib ko'ring."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}

	if _, err := h.Backend.ForgotPassword(c.Request.Context(), email); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "So'rovni yuborib bo'lmadi."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

type resetPasswordReq struct {
	Password string `json:"password"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8+ chars"})
		return
	}

	userID := c.Param("userId")
	token := c.Param("token")
	if _, err := h.Backend.ResetPassword(c.Request.Context(), userID, token, req.Password); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Parolni yangilab bo'lmadi."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *Handler) logout(c *gin.Context) {
	clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{
		"status":      "logged out",
		"callbackUrl": "/" + localeOf(c) + "/login",
	})
}

func localeOf(c *gin.Context) string {
	if v, ok := c.Get(locales.CtxLocaleKey); ok {
		if locale, ok := v.(string); ok && locale != "" {
			return locale
		}
	}
	return locales.Default
}
