package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/repository"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/rs/zerolog"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles repository.ArticleRepository
	tags     repository.TagRepository
	pageSize int
	topN     int
	log      zerolog.Logger
}

func newArticleService(articles repository.ArticleRepository, tags repository.TagRepository, pageSize, topN int, log zerolog.Logger) ArticleService {
	return &articleService{
		articles: articles,
		tags:     tags,
		pageSize: pageSize,
		topN:     topN,
		log:      log.With().Str("component", "articles").Logger(),
	}
}

// List returns one page of published articles matching the filter,
// pinned first then newest, with tags attached
func (s *articleService) List(ctx context.Context, filter models.ArticleFilter) (*ArticleList, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = s.pageSize
	}

	q := repository.ArticleQuery{
		TitleLike: strings.TrimSpace(filter.Query),
		Tag:       filter.Tag,
		Page:      page,
		PerPage:   perPage,
	}
	if filter.Permission == string(models.PermissionPublic) || filter.Permission == string(models.PermissionVerify) {
		q.Permission = filter.Permission
	}
	q.Start, q.End = resolveTimeWindow(filter.TimeRange, filter.CustomDate, time.Now())

	articles, total, err := s.articles.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	if err := s.attachTags(ctx, articles); err != nil {
		return nil, err
	}

	// Listings never carry gated bodies; the gate applies to full
	// content only, previews come from the summary.
	for _, a := range articles {
		if a.IsGated() {
			a.Content = ""
		}
	}

	return &ArticleList{Articles: articles, Total: total, Page: page, PerPage: perPage}, nil
}

// resolveTimeWindow maps a user-facing time filter to a concrete
// created_at window. Custom dates accept YYYY, YYYYMM or YYYYMMDD with
// any separators; anything else means no window.
func resolveTimeWindow(timeRange, customDate string, now time.Time) (*time.Time, *time.Time) {
	switch timeRange {
	case models.RangeWeek:
		start := now.AddDate(0, 0, -7)
		return &start, nil
	case models.RangeMonth:
		start := now.AddDate(0, 0, -30)
		return &start, nil
	case models.RangeQuarter:
		start := now.AddDate(0, 0, -90)
		return &start, nil
	case models.RangeYear:
		start := now.AddDate(0, 0, -365)
		return &start, nil
	case models.RangeCustom:
		return parseCustomDate(customDate)
	default:
		return nil, nil
	}
}

func parseCustomDate(raw string) (*time.Time, *time.Time) {
	digits := nonDigits.ReplaceAllString(raw, "")

	switch len(digits) {
	case 4: // YYYY
		year, err := strconv.Atoi(digits)
		if err != nil {
			return nil, nil
		}
		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.Local)
		end := start.AddDate(1, 0, 0)
		return &start, &end
	case 6: // YYYYMM
		year, _ := strconv.Atoi(digits[:4])
		month, err := strconv.Atoi(digits[4:6])
		if err != nil || month < 1 || month > 12 {
			return nil, nil
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		end := start.AddDate(0, 1, 0)
		return &start, &end
	case 8: // YYYYMMDD
		year, _ := strconv.Atoi(digits[:4])
		month, _ := strconv.Atoi(digits[4:6])
		day, err := strconv.Atoi(digits[6:8])
		if err != nil || month < 1 || month > 12 || day < 1 || day > 31 {
			return nil, nil
		}
		start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
		end := start.AddDate(0, 0, 1)
		return &start, &end
	default:
		return nil, nil
	}
}

// Top returns the most-viewed published articles for the sidebar
func (s *articleService) Top(ctx context.Context) ([]*models.Article, error) {
	articles, err := s.articles.Top(ctx, s.topN)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		a.Content = ""
	}
	return articles, nil
}

// Tags returns all tags with article counts for the filter bar
func (s *articleService) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.List(ctx)
}

// GetPublished retrieves a published article with tags, or nil when it
// does not exist
func (s *articleService) GetPublished(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.articles.GetPublished(ctx, id)
	if err != nil || article == nil {
		return article, err
	}
	if err := s.attachTags(ctx, []*models.Article{article}); err != nil {
		return nil, err
	}
	return article, nil
}

// RecordView bumps the view counter. Callers invoke it only after the
// access gate grants, so gated-but-unverified views never count.
func (s *articleService) RecordView(ctx context.Context, id int64) error {
	return s.articles.IncrementViewCount(ctx, id)
}

// Like records a like once per session
func (s *articleService) Like(ctx context.Context, id int64, state session.State) (session.State, error) {
	article, err := s.articles.GetPublished(ctx, id)
	if err != nil {
		return state, err
	}
	if article == nil {
		return state, Failf("article not found")
	}
	if state.HasLiked(id) {
		return state, nil
	}
	if err := s.articles.AdjustLikeCount(ctx, id, 1); err != nil {
		return state, err
	}
	return state.AddLiked(id), nil
}

// Unlike reverses a like recorded in this session
func (s *articleService) Unlike(ctx context.Context, id int64, state session.State) (session.State, error) {
	if !state.HasLiked(id) {
		return state, nil
	}
	if err := s.articles.AdjustLikeCount(ctx, id, -1); err != nil {
		return state, err
	}
	return state.RemoveLiked(id), nil
}

// Get retrieves an article in any status for the admin console
func (s *articleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, Failf("article not found")
	}
	if err := s.attachTags(ctx, []*models.Article{article}); err != nil {
		return nil, err
	}
	return article, nil
}

// Create stores a new article with its tag links
func (s *articleService) Create(ctx context.Context, article *models.Article, tagIDs []int64) (int64, error) {
	if err := validateArticle(article); err != nil {
		return 0, err
	}

	id, err := s.articles.Create(ctx, article)
	if err != nil {
		return 0, fmt.Errorf("failed to create article: %w", err)
	}
	article.ID = id

	if len(tagIDs) > 0 {
		if err := s.tags.ReplaceForArticle(ctx, id, tagIDs); err != nil {
			return 0, fmt.Errorf("failed to set article tags: %w", err)
		}
	}

	s.log.Info().Int64("article_id", id).Str("status", string(article.Status)).Msg("Article created")
	return id, nil
}

// Update modifies an article and rewrites its tag links
func (s *articleService) Update(ctx context.Context, article *models.Article, tagIDs []int64) error {
	if err := validateArticle(article); err != nil {
		return err
	}

	if err := s.articles.Update(ctx, article); err != nil {
		if isNotFound(err) {
			return Failf("article not found")
		}
		return fmt.Errorf("failed to update article: %w", err)
	}

	if err := s.tags.ReplaceForArticle(ctx, article.ID, tagIDs); err != nil {
		return fmt.Errorf("failed to set article tags: %w", err)
	}

	s.log.Info().Int64("article_id", article.ID).Msg("Article updated")
	return nil
}

// Delete removes an article and, transactionally, all its comments
func (s *articleService) Delete(ctx context.Context, id int64) error {
	if err := s.articles.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return Failf("article not found")
		}
		return fmt.Errorf("failed to delete article: %w", err)
	}

	s.log.Info().Int64("article_id", id).Msg("Article deleted")
	return nil
}

// ListAdmin returns one page of articles in any status
func (s *articleService) ListAdmin(ctx context.Context, page int) (*ArticleList, error) {
	if page < 1 {
		page = 1
	}

	articles, total, err := s.articles.ListAdmin(ctx, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, articles); err != nil {
		return nil, err
	}
	return &ArticleList{Articles: articles, Total: total, Page: page, PerPage: s.pageSize}, nil
}

// CreateTag stores a new tag
func (s *articleService) CreateTag(ctx context.Context, name, color string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, Failf("tag name is required")
	}
	if color == "" {
		color = "#007bff"
	}
	return s.tags.Create(ctx, name, color)
}

// DeleteTag removes a tag and its article links
func (s *articleService) DeleteTag(ctx context.Context, id int64) error {
	if err := s.tags.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return Failf("tag not found")
		}
		return err
	}
	return nil
}

func (s *articleService) attachTags(ctx context.Context, articles []*models.Article) error {
	if len(articles) == 0 {
		return nil
	}

	ids := make([]int64, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}

	byArticle, err := s.tags.ForArticles(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load article tags: %w", err)
	}
	for _, a := range articles {
		a.Tags = byArticle[a.ID]
		if a.Tags == nil {
			a.Tags = []models.Tag{}
		}
	}
	return nil
}

func validateArticle(article *models.Article) error {
	if strings.TrimSpace(article.Title) == "" {
		return Failf("title is required")
	}
	if article.Status == "" {
		article.Status = models.ArticleDraft
	}
	if article.Permission == "" {
		article.Permission = models.PermissionPublic
	}
	// Gated articles need a prompt; the answer may stay empty for
	// click-through gating.
	if article.Permission == models.PermissionVerify && strings.TrimSpace(article.VerifyQuestion) == "" {
		return Failf("verify question is required for gated articles")
	}
	return nil
}
