package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JavaNood/record-log/internal/config"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/service"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Allowed image upload extensions
var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// AdminHandler handles the moderation console endpoints
type AdminHandler struct {
	services *service.Services
	codec    *session.Codec
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, codec *session.Codec, cfg *config.Config, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		codec:    codec,
		cfg:      cfg,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// RequireAuth guards admin routes behind a valid admin session cookie
func (h *AdminHandler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(session.AdminCookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authentication required"})
			return
		}

		username, ok := h.codec.VerifyAdmin(cookie)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "session expired, please log in again"})
			return
		}

		c.Set("admin_user", username)
		c.Next()
	}
}

// Login handles POST /admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	admin, err := h.services.Admin.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	token := h.codec.SignAdmin(admin.Username, h.cfg.Session.AdminTTL)
	c.SetCookie(session.AdminCookieName, token, int(h.cfg.Session.AdminTTL.Seconds()), "/", "", h.cfg.Session.CookieSecure, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "welcome back, " + admin.Username,
	})
}

// Logout handles POST /admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetCookie(session.AdminCookieName, "", -1, "/", "", h.cfg.Session.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// Dashboard handles GET /admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	pending, err := h.services.Comment.PendingCount(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}

	title, err := h.services.Admin.GetConfig(ctx, "site_title", "record-log")
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"admin":            c.GetString("admin_user"),
		"pending_comments": pending,
		"site_title":       title,
	})
}

// ListArticles handles GET /admin/articles
func (h *AdminHandler) ListArticles(c *gin.Context) {
	list, err := h.services.Article.ListAdmin(c.Request.Context(), queryInt(c, "page", 1))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetArticle handles GET /admin/articles/:id. Unlike the public view,
// the stored verify answer is included for editing.
func (h *AdminHandler) GetArticle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	article, err := h.services.Article.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article":       article,
		"verify_answer": article.VerifyAnswer,
	})
}

type articleRequest struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Summary        string  `json:"summary"`
	Author         string  `json:"author"`
	Status         string  `json:"status"`
	Permission     string  `json:"permission"`
	VerifyQuestion string  `json:"verify_question"`
	VerifyAnswer   string  `json:"verify_answer"`
	AllowComments  *bool   `json:"allow_comments"`
	IsTop          bool    `json:"is_top"`
	TagIDs         []int64 `json:"tag_ids"`
}

func (r *articleRequest) toModel(id int64) *models.Article {
	allowComments := true
	if r.AllowComments != nil {
		allowComments = *r.AllowComments
	}
	return &models.Article{
		ID:             id,
		Title:          r.Title,
		Content:        r.Content,
		Summary:        r.Summary,
		Author:         r.Author,
		Status:         models.ArticleStatus(r.Status),
		Permission:     models.Permission(r.Permission),
		VerifyQuestion: r.VerifyQuestion,
		VerifyAnswer:   r.VerifyAnswer,
		AllowComments:  allowComments,
		IsTop:          r.IsTop,
	}
}

// CreateArticle handles POST /admin/articles
func (h *AdminHandler) CreateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	id, err := h.services.Article.Create(c.Request.Context(), req.toModel(0), req.TagIDs)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "article created", "id": id})
}

// UpdateArticle handles PUT /admin/articles/:id
func (h *AdminHandler) UpdateArticle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	if err := h.services.Article.Update(c.Request.Context(), req.toModel(id), req.TagIDs); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "article updated"})
}

// DeleteArticle handles DELETE /admin/articles/:id
func (h *AdminHandler) DeleteArticle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.services.Article.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "article and its comments deleted"})
}

// ListComments handles GET /admin/comments
func (h *AdminHandler) ListComments(c *gin.Context) {
	ctx := c.Request.Context()

	status := models.CommentStatus(c.Query("status"))
	switch status {
	case "", models.CommentPending, models.CommentApproved, models.CommentRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid status filter"})
		return
	}

	page, err := h.services.Comment.ListAdmin(ctx, status, queryInt(c, "page", 1))
	if err != nil {
		h.renderError(c, err)
		return
	}

	pending, err := h.services.Comment.PendingCount(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":      page.Comments,
		"total":         page.Total,
		"page":          page.Page,
		"per_page":      page.PerPage,
		"pending_count": pending,
	})
}

// ModerateComment handles POST /admin/comments/:id/moderate
func (h *AdminHandler) ModerateComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	action := models.ModerationAction(req.Action)
	if err := h.services.Comment.Moderate(c.Request.Context(), id, action); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "comment " + req.Action + "d"})
}

// BatchModerate handles POST /admin/comments/batch
func (h *AdminHandler) BatchModerate(c *gin.Context) {
	var req struct {
		IDs    []int64 `json:"ids"`
		Action string  `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no comment ids given"})
		return
	}

	result, err := h.services.Comment.BatchModerate(c.Request.Context(), req.IDs, models.ModerationAction(req.Action))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         result.Message,
		"processed_count": result.Processed,
	})
}

// ReplyComment handles POST /admin/comments/:id/reply
func (h *AdminHandler) ReplyComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Content   string `json:"content"`
		IsPrivate bool   `json:"is_private"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.AdminReply(c.Request.Context(), id, req.Content, req.IsPrivate)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "reply posted", "comment": comment})
}

// GetConfig handles GET /admin/config/:key
func (h *AdminHandler) GetConfig(c *gin.Context) {
	value, err := h.services.Admin.GetConfig(c.Request.Context(), c.Param("key"), "")
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

// SetConfig handles PUT /admin/config/:key
func (h *AdminHandler) SetConfig(c *gin.Context) {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	if err := h.services.Admin.SetConfig(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "config saved"})
}

// CreateTag handles POST /admin/tags
func (h *AdminHandler) CreateTag(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	id, err := h.services.Article.CreateTag(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "tag created", "id": id})
}

// DeleteTag handles DELETE /admin/tags/:id
func (h *AdminHandler) DeleteTag(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.services.Article.DeleteTag(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "tag deleted"})
}

// UploadImage handles POST /admin/upload-image
func (h *AdminHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no image file selected"})
		return
	}

	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "image too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unsupported image format"})
		return
	}

	// uuid prefix avoids collisions between same-named uploads
	stored := uuid.New().String() + ext
	dest := filepath.Join(h.cfg.Upload.Dir, stored)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "image uploaded",
		"image_url": "/static/images/uploads/" + stored,
	})
}

func (h *AdminHandler) renderError(c *gin.Context, err error) {
	if f, ok := service.AsFailure(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": f.Message})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
}
