package api

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"jadwalku/internal/auth"
	"jadwalku/internal/models"
	"jadwalku/internal/service/ai"
	"jadwalku/internal/service/schedule"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

const msgEmptyText = "Teks kosong"

// Extractor turns free text into schedule items. Both *ai.Extractor and
// *worker.Dispatcher satisfy it.
type Extractor interface {
	Extract(ctx context.Context, text string, today time.Time) ([]models.ExtractedItem, error)
}

// Handler wires HTTP routes to the schedule store and the extraction pipeline.
type Handler struct {
	schedule  *schedule.Service
	auth      *auth.Service
	extractor Extractor
}

// NewHandler constructs a Handler instance.
func NewHandler(scheduleService *schedule.Service, authService *auth.Service, extractor Extractor) *Handler {
	return &Handler{
		schedule:  scheduleService,
		auth:      authService,
		extractor: extractor,
	}
}

// RegisterRoutes attaches all HTTP routes, pages and static assets to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	tmpl := template.Must(template.ParseFS(webFS, "web/templates/*.html"))
	router.SetHTMLTemplate(tmpl)
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	router.StaticFS("/static", http.FS(static))

	router.Use(h.auth.Middleware())
	router.GET("/health", h.health)
	router.GET("/login", h.loginPage)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)
	router.GET("/", auth.RequirePage("/login"), h.index)

	api := router.Group("")
	api.Use(auth.RequireLogin(), h.auth.CSRFMiddleware())
	api.POST("/add", h.addJadwal)
	api.GET("/jadwal", h.listJadwal)
	api.GET("/jadwal.ics", h.exportICS)
	api.DELETE("/delete/:id", h.deleteJadwal)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Pages
func (h *Handler) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"error": nil})
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

func (h *Handler) login(c *gin.Context) {
	sessionToken, err := h.auth.Login(c.Request.Context(), c.PostForm("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			c.HTML(http.StatusOK, "login.html", gin.H{"error": "Password salah 😭"})
			return
		}
		log.Printf("login failed: %v", err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": "Login gagal, coba lagi"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		log.Printf("issue csrf token failed: %v", err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": "Login gagal, coba lagi"})
		return
	}
	h.setAuthCookies(c, sessionToken, csrfToken)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if token, ok := auth.SessionTokenFromContext(c); ok {
		if err := h.auth.RevokeSession(c.Request.Context(), token); err != nil {
			log.Printf("revoke session failed: %v", err)
		}
	}
	h.clearAuthCookies(c)
	c.Redirect(http.StatusFound, "/login")
}

// Schedule interface
type addRequest struct {
	Text string `json:"text"`
}

func (h *Handler) addJadwal(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgEmptyText})
		return
	}

	ctx := c.Request.Context()
	today := h.schedule.Today()
	items, err := h.extractor.Extract(ctx, req.Text, today)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgEmptyText})
			return
		}
		log.Printf("extract jadwal failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	saved, err := h.schedule.Record(ctx, items, today)
	if err != nil {
		log.Printf("record jadwal failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": saved})
}

func (h *Handler) listJadwal(c *gin.Context) {
	entries, err := h.schedule.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) deleteJadwal(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not Found"})
		return
	}
	if err := h.schedule.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) exportICS(c *gin.Context) {
	body, err := h.schedule.ExportICS(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="jadwal.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// parseID accepts only plain unsigned decimal ids.
func parseID(raw string) (int64, bool) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Cookies
func (h *Handler) setAuthCookies(c *gin.Context, sessionToken, csrfToken string) {
	ttl := int(h.auth.SessionTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	setCookie(c, &http.Cookie{
		Name:     h.auth.SessionCookieName(),
		Value:    sessionToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	setCookie(c, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.SessionCookieName(), h.auth.CSRFCookieName()} {
		setCookie(c, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.SessionCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}
