package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JavaNood/record-log/internal/config"
	"github.com/JavaNood/record-log/internal/geo"
	"github.com/JavaNood/record-log/internal/models"
	"github.com/JavaNood/record-log/internal/repository"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/rs/zerolog"
)

// Failure is a user-facing operation failure: bad input, a missing
// record, a wrong answer. Handlers render its message to the client
// verbatim. Anything else returned as an error is an internal fault and
// surfaces as a generic failure.
type Failure struct {
	Message string
}

// Error implements the error interface
func (f *Failure) Error() string {
	return f.Message
}

// Failf creates a Failure with a formatted message
func Failf(format string, args ...interface{}) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a Failure from an error chain
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// AccessDecision is the outcome of an article access check.
type AccessDecision int

const (
	// AccessGranted means full content may be shown.
	AccessGranted AccessDecision = iota
	// AccessMustVerify means the visitor has to answer the article's
	// verification question first.
	AccessMustVerify
)

// VerifyResult is the structured outcome of an answer submission.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AccessGate decides whether a visitor may view an article's full
// content and processes verification-answer submissions.
type AccessGate interface {
	// CheckAccess is a pure predicate over (article, session) — it
	// never mutates state. Callers increment the view counter only on
	// the granted path.
	CheckAccess(article *models.Article, state session.State) AccessDecision
	// VerifyAnswer validates a submitted answer. The returned state
	// carries the unlocked article on success; the error is non-nil
	// only for persistence faults.
	VerifyAnswer(ctx context.Context, articleID, answer string, state session.State) (session.State, VerifyResult, error)
}

// SubmitRequest is a public comment submission
type SubmitRequest struct {
	ArticleID int64
	Content   string
	Nickname  string
	IsPrivate bool
	ParentID  *int64
	IP        string
}

// CommentPage is one page of comments plus pagination totals
type CommentPage struct {
	Comments []*models.Comment `json:"comments"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
}

// BatchResult reports a batch moderation outcome
type BatchResult struct {
	Processed int    `json:"processed_count"`
	Message   string `json:"message"`
}

// CommentService manages the comment moderation lifecycle
type CommentService interface {
	Submit(ctx context.Context, req SubmitRequest) (*models.Comment, error)
	AdminReply(ctx context.Context, parentID int64, content string, isPrivate bool) (*models.Comment, error)
	Moderate(ctx context.Context, commentID int64, action models.ModerationAction) error
	BatchModerate(ctx context.Context, commentIDs []int64, action models.ModerationAction) (BatchResult, error)
	ListPublic(ctx context.Context, articleID int64, page int) (*CommentPage, error)
	ListAdmin(ctx context.Context, status models.CommentStatus, page int) (*CommentPage, error)
	PendingCount(ctx context.Context) (int, error)
}

// ArticleList is one page of articles plus pagination totals
type ArticleList struct {
	Articles []*models.Article `json:"articles"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
}

// ArticleService serves article listings and admin article management
type ArticleService interface {
	List(ctx context.Context, filter models.ArticleFilter) (*ArticleList, error)
	Top(ctx context.Context) ([]*models.Article, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	GetPublished(ctx context.Context, id int64) (*models.Article, error)
	RecordView(ctx context.Context, id int64) error
	Like(ctx context.Context, id int64, state session.State) (session.State, error)
	Unlike(ctx context.Context, id int64, state session.State) (session.State, error)

	Get(ctx context.Context, id int64) (*models.Article, error)
	Create(ctx context.Context, article *models.Article, tagIDs []int64) (int64, error)
	Update(ctx context.Context, article *models.Article, tagIDs []int64) error
	Delete(ctx context.Context, id int64) error
	ListAdmin(ctx context.Context, page int) (*ArticleList, error)
	CreateTag(ctx context.Context, name, color string) (int64, error)
	DeleteTag(ctx context.Context, id int64) error
}

// AdminService handles admin authentication and site configuration
type AdminService interface {
	Login(ctx context.Context, username, password string) (*models.Admin, error)
	GetConfig(ctx context.Context, key, fallback string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Services holds all service interfaces
type Services struct {
	Access  AccessGate
	Comment CommentService
	Article ArticleService
	Admin   AdminService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, resolver geo.Resolver, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Access:  newAccessGate(repos.Article, log),
		Comment: newCommentService(repos.Article, repos.Comment, resolver, cfg.Content.PageSize, log),
		Article: newArticleService(repos.Article, repos.Tag, cfg.Content.PageSize, cfg.Content.TopArticles, log),
		Admin:   newAdminService(repos.Admin, log),
	}
}
