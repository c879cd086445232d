package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JavaNood/record-log/internal/config"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/service"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FrontendHandler handles public reader endpoints
type FrontendHandler struct {
	services *service.Services
	codec    *session.Codec
	cfg      *config.Config
	log      zerolog.Logger
}

// NewFrontendHandler creates a new FrontendHandler
func NewFrontendHandler(services *service.Services, codec *session.Codec, cfg *config.Config, log zerolog.Logger) *FrontendHandler {
	return &FrontendHandler{
		services: services,
		codec:    codec,
		cfg:      cfg,
		log:      log.With().Str("handler", "frontend").Logger(),
	}
}

// ListArticles handles GET /v1/articles
func (h *FrontendHandler) ListArticles(c *gin.Context) {
	ctx := c.Request.Context()

	filter := models.ArticleFilter{
		Query:      c.Query("q"),
		TimeRange:  c.DefaultQuery("range", models.RangeAll),
		CustomDate: c.Query("date"),
		Tag:        c.Query("tag"),
		Permission: c.DefaultQuery("permission", "all"),
		Page:       queryInt(c, "page", 1),
	}

	list, err := h.services.Article.List(ctx, filter)
	if err != nil {
		h.renderError(c, err)
		return
	}

	tags, err := h.services.Article.Tags(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}

	top, err := h.services.Article.Top(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":     list.Articles,
		"total":        list.Total,
		"page":         list.Page,
		"per_page":     list.PerPage,
		"tags":         tags,
		"top_articles": top,
	})
}

// GetArticle handles GET /v1/articles/:id. Gated articles the session
// has not unlocked come back as a verification prompt instead of
// content, and only granted views bump the view counter.
func (h *FrontendHandler) GetArticle(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := paramID(c)
	if !ok {
		return
	}

	article, err := h.services.Article.GetPublished(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "article not found"})
		return
	}

	state := h.readState(c)
	if h.services.Access.CheckAccess(article, state) == service.AccessMustVerify {
		c.JSON(http.StatusOK, gin.H{
			"verify_required": true,
			"article": gin.H{
				"id":              article.ID,
				"title":           article.Title,
				"verify_question": article.VerifyQuestion,
			},
		})
		return
	}

	if err := h.services.Article.RecordView(ctx, id); err != nil {
		h.log.Error().Err(err).Int64("article_id", id).Msg("Failed to record view")
	} else {
		article.ViewCount++
	}

	c.JSON(http.StatusOK, gin.H{
		"verify_required": false,
		"article":         article,
		"liked":           state.HasLiked(id),
	})
}

// VerifyArticle handles POST /v1/verify_article
func (h *FrontendHandler) VerifyArticle(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		ArticleID interface{} `json:"article_id"`
		Answer    string      `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, service.VerifyResult{Message: "invalid request body"})
		return
	}

	// The id may arrive as a JSON number or a string; the gate
	// normalizes either form.
	var idStr string
	if req.ArticleID != nil {
		idStr = strings.TrimSuffix(fmt.Sprintf("%v", req.ArticleID), ".0")
	}

	state := h.readState(c)
	state, result, err := h.services.Access.VerifyAnswer(ctx, idStr, req.Answer, state)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if result.Success {
		h.writeState(c, state)
	}
	c.JSON(http.StatusOK, result)
}

// ListComments handles GET /v1/articles/:id/comments
func (h *FrontendHandler) ListComments(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := paramID(c)
	if !ok {
		return
	}

	page, err := h.services.Comment.ListPublic(ctx, id, queryInt(c, "page", 1))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SubmitComment handles POST /v1/articles/:id/comments
func (h *FrontendHandler) SubmitComment(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Content   string `json:"content"`
		Nickname  string `json:"nickname"`
		IsPrivate bool   `json:"is_private"`
		ParentID  *int64 `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.Submit(ctx, service.SubmitRequest{
		ArticleID: id,
		Content:   req.Content,
		Nickname:  req.Nickname,
		IsPrivate: req.IsPrivate,
		ParentID:  req.ParentID,
		IP:        requesterIP(c),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "comment submitted, awaiting moderation",
		"comment": comment,
	})
}

// LikeArticle handles POST /v1/articles/:id/like
func (h *FrontendHandler) LikeArticle(c *gin.Context) {
	h.setLike(c, true)
}

// UnlikeArticle handles POST /v1/articles/:id/unlike
func (h *FrontendHandler) UnlikeArticle(c *gin.Context) {
	h.setLike(c, false)
}

func (h *FrontendHandler) setLike(c *gin.Context, liked bool) {
	ctx := c.Request.Context()

	id, ok := paramID(c)
	if !ok {
		return
	}

	state := h.readState(c)
	var err error
	if liked {
		state, err = h.services.Article.Like(ctx, id, state)
	} else {
		state, err = h.services.Article.Unlike(ctx, id, state)
	}
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.writeState(c, state)
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

// ListTags handles GET /v1/tags
func (h *FrontendHandler) ListTags(c *gin.Context) {
	tags, err := h.services.Article.Tags(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// readState decodes the visitor session cookie, defaulting to an empty
// state on any problem
func (h *FrontendHandler) readState(c *gin.Context) session.State {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil {
		return session.State{}
	}
	return h.codec.Decode(cookie)
}

// writeState re-issues the visitor session cookie
func (h *FrontendHandler) writeState(c *gin.Context, state session.State) {
	value, err := h.codec.Encode(state)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode session state")
		return
	}

	// Short default lifetime; unlocking a gate extends the session so
	// the visitor is not re-prompted.
	maxAge := int(h.cfg.Session.TTL.Seconds())
	if state.Permanent {
		maxAge = int(h.cfg.Session.PermanentTTL.Seconds())
	}
	c.SetCookie(session.CookieName, value, maxAge, "/", "", h.cfg.Session.CookieSecure, true)
}

func (h *FrontendHandler) renderError(c *gin.Context, err error) {
	if f, ok := service.AsFailure(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": f.Message})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
}

// requesterIP prefers the first X-Forwarded-For entry, falling back to
// the direct peer address
func requesterIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid article id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
