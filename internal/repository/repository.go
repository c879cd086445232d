package repository

import (
	"context"
	"time"

	"github.com/JavaNood/record-log/internal/database"
	"github.com/JavaNood/record-log/internal/models"
)

// ArticleQuery narrows article listings at the storage level. The
// service layer translates user-facing filters (time ranges, custom
// dates) into the concrete window here.
type ArticleQuery struct {
	TitleLike  string
	Start      *time.Time
	End        *time.Time
	Tag        string
	Permission string
	Page       int
	PerPage    int
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) (int64, error)
	Update(ctx context.Context, article *models.Article) error
	// Delete removes the article and all its comments and tag links in
	// one transaction.
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetPublished(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context, q ArticleQuery) ([]*models.Article, int, error)
	ListAdmin(ctx context.Context, page, perPage int) ([]*models.Article, int, error)
	Top(ctx context.Context, limit int) ([]*models.Article, error)
	IncrementViewCount(ctx context.Context, id int64) error
	AdjustLikeCount(ctx context.Context, id int64, delta int) error
}

// CommentRepository defines the interface for comment data operations.
// Every mutation that can change which comments count as approved also
// recomputes the owning article's comments_count inside the same
// transaction, so the cached counter always derives from durable rows.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	// Approve flips a pending comment to approved. Returns false when
	// the comment is missing or not pending (safe no-op, no recount
	// drift from repeated calls).
	Approve(ctx context.Context, id int64) (bool, error)
	// Reject moves a pending or approved comment to rejected.
	Reject(ctx context.Context, id int64) (bool, error)
	// Delete removes the comment from any state.
	Delete(ctx context.Context, id int64) (bool, error)
	ListRoots(ctx context.Context, articleID int64, publicOnly bool, page, perPage int) ([]*models.Comment, int, error)
	ListReplies(ctx context.Context, rootIDs []int64, publicOnly bool) ([]*models.Comment, error)
	ListAdmin(ctx context.Context, status models.CommentStatus, page, perPage int) ([]*models.Comment, int, error)
	CountByStatus(ctx context.Context, status models.CommentStatus) (int, error)
	CountApproved(ctx context.Context, articleID int64) (int, error)
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, name, color string) (int64, error)
	Delete(ctx context.Context, id int64) error
	ReplaceForArticle(ctx context.Context, articleID int64, tagIDs []int64) error
	ForArticles(ctx context.Context, articleIDs []int64) (map[int64][]models.Tag, error)
}

// AdminRepository defines the interface for admin account and site
// configuration operations
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetConfig(ctx context.Context, key string) (string, bool, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	Comment CommentRepository
	Tag     TagRepository
	Admin   AdminRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
		Comment: NewCommentRepo(db),
		Tag:     NewTagRepo(db),
		Admin:   NewAdminRepo(db),
	}
}
