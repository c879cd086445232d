package mocks

import (
	"context"
	"sort"
	"strings"

	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/repository"
)

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	Articles    map[int64]*models.Article
	NextID      int64
	CreateError error
	UpdateError error
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[int64]*models.Article),
		NextID:   1,
	}
}

// Add seeds an article, assigning an id when it has none.
func (m *MockArticleRepository) Add(article *models.Article) *models.Article {
	if article.ID == 0 {
		article.ID = m.NextID
	}
	if article.ID >= m.NextID {
		m.NextID = article.ID + 1
	}
	m.Articles[article.ID] = article
	return article
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.Add(article)
	return article.ID, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	existing, exists := m.Articles[article.ID]
	if !exists {
		return nil
	}
	article.ViewCount = existing.ViewCount
	article.LikeCount = existing.LikeCount
	article.CommentsCount = existing.CommentsCount
	m.Articles[article.ID] = article
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) error {
	delete(m.Articles, id)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return m.Articles[id], nil
}

func (m *MockArticleRepository) GetPublished(ctx context.Context, id int64) (*models.Article, error) {
	article, exists := m.Articles[id]
	if !exists || !article.IsPublished() {
		return nil, nil
	}
	// Return a copy, as the real repository scans a fresh row; callers
	// mutate the result (response-only view bumps, gated-content blanking)
	// without writing through to storage.
	cp := *article
	return &cp, nil
}

func (m *MockArticleRepository) List(ctx context.Context, q repository.ArticleQuery) ([]*models.Article, int, error) {
	var matched []*models.Article
	for _, a := range m.Articles {
		if !a.IsPublished() {
			continue
		}
		if q.TitleLike != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(q.TitleLike)) {
			continue
		}
		if q.Permission != "" && string(a.Permission) != q.Permission {
			continue
		}
		if q.Start != nil && a.CreatedAt.Before(*q.Start) {
			continue
		}
		if q.End != nil && !a.CreatedAt.Before(*q.End) {
			continue
		}
		if q.Tag != "" {
			found := false
			for _, t := range a.Tags {
				if t.Name == q.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsTop != matched[j].IsTop {
			return matched[i].IsTop
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return paginate(matched, q.Page, q.PerPage)
}

func (m *MockArticleRepository) ListAdmin(ctx context.Context, page, perPage int) ([]*models.Article, int, error) {
	all := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsTop != all[j].IsTop {
			return all[i].IsTop
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return paginate(all, page, perPage)
}

func (m *MockArticleRepository) Top(ctx context.Context, limit int) ([]*models.Article, error) {
	var published []*models.Article
	for _, a := range m.Articles {
		if a.IsPublished() {
			published = append(published, a)
		}
	}
	sort.Slice(published, func(i, j int) bool {
		return published[i].ViewCount > published[j].ViewCount
	})
	if len(published) > limit {
		published = published[:limit]
	}
	return published, nil
}

func (m *MockArticleRepository) IncrementViewCount(ctx context.Context, id int64) error {
	if article, exists := m.Articles[id]; exists {
		article.ViewCount++
	}
	return nil
}

func (m *MockArticleRepository) AdjustLikeCount(ctx context.Context, id int64, delta int) error {
	if article, exists := m.Articles[id]; exists {
		article.LikeCount += delta
		if article.LikeCount < 0 {
			article.LikeCount = 0
		}
	}
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository.
// When Articles is set, every status-changing mutation recomputes the
// owning article's approved-comment counter the way the SQL layer does.
type MockCommentRepository struct {
	Comments    map[int64]*models.Comment
	NextID      int64
	Articles    *MockArticleRepository
	CreateError error
}

func NewMockCommentRepository(articles *MockArticleRepository) *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[int64]*models.Comment),
		NextID:   1,
		Articles: articles,
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	comment.ID = m.NextID
	m.NextID++
	m.Comments[comment.ID] = comment
	m.recount(comment.ArticleID)
	return comment.ID, nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	return m.Comments[id], nil
}

func (m *MockCommentRepository) Approve(ctx context.Context, id int64) (bool, error) {
	comment, exists := m.Comments[id]
	if !exists || comment.Status != models.CommentPending {
		return false, nil
	}
	comment.Status = models.CommentApproved
	m.recount(comment.ArticleID)
	return true, nil
}

func (m *MockCommentRepository) Reject(ctx context.Context, id int64) (bool, error) {
	comment, exists := m.Comments[id]
	if !exists || comment.Status == models.CommentRejected {
		return false, nil
	}
	comment.Status = models.CommentRejected
	m.recount(comment.ArticleID)
	return true, nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	comment, exists := m.Comments[id]
	if !exists {
		return false, nil
	}
	delete(m.Comments, id)
	m.recount(comment.ArticleID)
	return true, nil
}

func (m *MockCommentRepository) ListRoots(ctx context.Context, articleID int64, publicOnly bool, page, perPage int) ([]*models.Comment, int, error) {
	var roots []*models.Comment
	for _, c := range m.Comments {
		if c.ArticleID != articleID || !c.IsRoot() {
			continue
		}
		if publicOnly && (c.Status != models.CommentApproved || c.IsPrivate) {
			continue
		}
		roots = append(roots, c)
	}
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].ID > roots[j].ID
	})
	return paginate(roots, page, perPage)
}

func (m *MockCommentRepository) ListReplies(ctx context.Context, rootIDs []int64, publicOnly bool) ([]*models.Comment, error) {
	wanted := make(map[int64]bool, len(rootIDs))
	for _, id := range rootIDs {
		wanted[id] = true
	}

	var replies []*models.Comment
	for _, c := range m.Comments {
		if c.IsRoot() || !wanted[*c.ParentID] {
			continue
		}
		if publicOnly && (c.Status != models.CommentApproved || c.IsPrivate) {
			continue
		}
		replies = append(replies, c)
	}
	sort.Slice(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}
		return replies[i].ID < replies[j].ID
	})
	return replies, nil
}

func (m *MockCommentRepository) ListAdmin(ctx context.Context, status models.CommentStatus, page, perPage int) ([]*models.Comment, int, error) {
	var matched []*models.Comment
	for _, c := range m.Comments {
		if status != "" && c.Status != status {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, page, perPage)
}

func (m *MockCommentRepository) CountByStatus(ctx context.Context, status models.CommentStatus) (int, error) {
	count := 0
	for _, c := range m.Comments {
		if c.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *MockCommentRepository) CountApproved(ctx context.Context, articleID int64) (int, error) {
	count := 0
	for _, c := range m.Comments {
		if c.ArticleID == articleID && c.Status == models.CommentApproved {
			count++
		}
	}
	return count, nil
}

func (m *MockCommentRepository) recount(articleID int64) {
	if m.Articles == nil {
		return
	}
	article, exists := m.Articles.Articles[articleID]
	if !exists {
		return
	}
	count, _ := m.CountApproved(context.Background(), articleID)
	article.CommentsCount = count
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	Tags        map[int64]models.Tag
	ArticleTags map[int64][]int64
	NextID      int64
}

func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{
		Tags:        make(map[int64]models.Tag),
		ArticleTags: make(map[int64][]int64),
		NextID:      1,
	}
}

func (m *MockTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (m *MockTagRepository) Create(ctx context.Context, name, color string) (int64, error) {
	id := m.NextID
	m.NextID++
	m.Tags[id] = models.Tag{ID: id, Name: name, Color: color}
	return id, nil
}

func (m *MockTagRepository) Delete(ctx context.Context, id int64) error {
	delete(m.Tags, id)
	for articleID, ids := range m.ArticleTags {
		kept := ids[:0]
		for _, tagID := range ids {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		m.ArticleTags[articleID] = kept
	}
	return nil
}

func (m *MockTagRepository) ReplaceForArticle(ctx context.Context, articleID int64, tagIDs []int64) error {
	m.ArticleTags[articleID] = append([]int64(nil), tagIDs...)
	return nil
}

func (m *MockTagRepository) ForArticles(ctx context.Context, articleIDs []int64) (map[int64][]models.Tag, error) {
	result := make(map[int64][]models.Tag)
	for _, articleID := range articleIDs {
		for _, tagID := range m.ArticleTags[articleID] {
			if tag, exists := m.Tags[tagID]; exists {
				result[articleID] = append(result[articleID], tag)
			}
		}
	}
	return result, nil
}

// MockAdminRepository is a mock implementation of AdminRepository
type MockAdminRepository struct {
	Admins map[string]*models.Admin
	Config map[string]string
}

func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		Admins: make(map[string]*models.Admin),
		Config: make(map[string]string),
	}
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return m.Admins[username], nil
}

func (m *MockAdminRepository) GetConfig(ctx context.Context, key string) (string, bool, error) {
	value, exists := m.Config[key]
	return value, exists, nil
}

func (m *MockAdminRepository) SetConfig(ctx context.Context, key, value string) error {
	m.Config[key] = value
	return nil
}

// NewRepositories bundles mocks into the aggregate the services expect.
func NewRepositories() (*repository.Repositories, *MockArticleRepository, *MockCommentRepository) {
	articles := NewMockArticleRepository()
	comments := NewMockCommentRepository(articles)
	repos := &repository.Repositories{
		Article: articles,
		Comment: comments,
		Tag:     NewMockTagRepository(),
		Admin:   NewMockAdminRepository(),
	}
	return repos, articles, comments
}

func paginate[T any](items []T, page, perPage int) ([]T, int, error) {
	total := len(items)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return items, total, nil
	}
	start := (page - 1) * perPage
	if start >= total {
		return []T{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}
